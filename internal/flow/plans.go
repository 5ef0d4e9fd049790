// Package flow builds the fitness and meal plan texts from collected
// answers. Plan building is deterministic string formatting, no generation
// service involved.
package flow

import (
	"fmt"
	"strings"
)

// BuildFitnessPlan formats a weekly workout plan from the fitness flow
// answers.
func BuildFitnessPlan(goals string, frequency int, equipment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏋️ Your fitness plan\n\nGoal: %s\nSchedule: %d day(s) per week\nEquipment: %s\n\n", goals, frequency, equipment)

	split := workoutSplit(goals)
	for day := 1; day <= frequency; day++ {
		fmt.Fprintf(&b, "Day %d: %s\n", day, split[(day-1)%len(split)])
	}

	b.WriteString("\nWarm up for 5-10 minutes before each session and rest at least one day between intense workouts.")
	return b.String()
}

func workoutSplit(goals string) []string {
	lower := strings.ToLower(goals)
	switch {
	case strings.Contains(lower, "muscle") || strings.Contains(lower, "strength"):
		return []string{
			"Upper body strength (push focus)",
			"Lower body strength (squat focus)",
			"Upper body strength (pull focus)",
			"Lower body strength (hinge focus)",
			"Full body strength + core",
		}
	case strings.Contains(lower, "weight") || strings.Contains(lower, "fat"):
		return []string{
			"30-40 min cardio (brisk walk, cycle or jog)",
			"Full body circuit training",
			"Interval training (20 min) + core",
			"Low-intensity cardio + stretching",
			"Full body circuit training",
		}
	default:
		return []string{
			"Full body workout",
			"Cardio of your choice (30 min)",
			"Mobility and core",
			"Full body workout",
			"Light cardio + stretching",
		}
	}
}

// BuildMealPlan formats a daily meal plan from the meals flow answers.
func BuildMealPlan(preferences, allergies string, frequency int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ Your meal plan\n\nPreferences: %s\nAllergies: %s\nMeals per day: %d\n\n", preferences, allergies, frequency)

	meals := mealSuggestions(preferences)
	labels := []string{"Breakfast", "Lunch", "Dinner", "Snack 1", "Snack 2", "Snack 3"}
	for i := 0; i < frequency && i < len(labels); i++ {
		fmt.Fprintf(&b, "%s: %s\n", labels[i], meals[i%len(meals)])
	}

	if !strings.EqualFold(strings.TrimSpace(allergies), "none") && allergies != "" {
		fmt.Fprintf(&b, "\nAll suggestions should be checked against your allergies (%s) before preparing.", allergies)
	}
	return b.String()
}

func mealSuggestions(preferences string) []string {
	lower := strings.ToLower(preferences)
	switch {
	case strings.Contains(lower, "vegetarian") || strings.Contains(lower, "vegan"):
		return []string{
			"Oatmeal with fruit and nuts",
			"Lentil curry with brown rice",
			"Grilled vegetable and chickpea bowl",
			"Hummus with vegetable sticks",
			"Greek yogurt or plant-based alternative with berries",
		}
	case strings.Contains(lower, "protein"):
		return []string{
			"Egg omelette with spinach",
			"Grilled chicken with quinoa and greens",
			"Baked salmon with sweet potato",
			"Cottage cheese with nuts",
			"Protein smoothie with banana",
		}
	default:
		return []string{
			"Whole grain toast with eggs and avocado",
			"Chicken and vegetable stir-fry with rice",
			"Fish or bean stew with vegetables",
			"Fruit and a handful of nuts",
			"Yogurt with granola",
		}
	}
}
