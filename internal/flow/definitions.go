// Package flow defines the static step tables for each dialogue flow.
package flow

import "github.com/carebridge/healthmate/internal/models"

// Onboarding collects the identity profile. Every step enforces its stated
// range.
var Onboarding = &Definition{
	Type: models.FlowOnboarding,
	Steps: []Step{
		{
			Name:     models.StepFullName,
			Key:      "name",
			Prompt:   "What's your name?",
			Validate: NonEmpty("Please tell me your name."),
		},
		{
			Name:     models.StepAge,
			Key:      "age",
			Prompt:   "How old are you?",
			Validate: IntRange(0, 150),
		},
		{
			Name:     models.StepSex,
			Key:      "sex",
			Prompt:   "What is your sex? (male / female / other)",
			Validate: OneOf("male", "female", "other"),
		},
		{
			Name:     models.StepHeight,
			Key:      "height",
			Prompt:   "What's your height in cm?",
			Validate: DecimalRange(50, 300),
		},
		{
			Name:     models.StepWeight,
			Key:      "weight",
			Prompt:   "What's your weight in kg?",
			Validate: DecimalRange(20, 300),
		},
		{
			Name:     models.StepMedicalHistory,
			Key:      "medical_history",
			Prompt:   "Any medical conditions or medications I should know about? (type 'none' if not)",
			Validate: AnyText(),
		},
	},
}

// Assessment collects seven lifestyle answers. The numeric steps advertise
// ranges in their prompts but only enforce numeric-ness; this leniency is
// intentional and covered by tests.
var Assessment = &Definition{
	Type: models.FlowAssessment,
	Steps: []Step{
		{
			Name:     models.StepSleep,
			Key:      "sleep",
			Prompt:   "How many hours do you sleep per night? (4-12)",
			Validate: Numeric(),
		},
		{
			Name:     models.StepWater,
			Key:      "water",
			Prompt:   "How many glasses of water do you drink per day? (1-20)",
			Validate: Numeric(),
		},
		{
			Name:     models.StepExercise,
			Key:      "exercise",
			Prompt:   "How many days per week do you exercise? (0-7)",
			Validate: Numeric(),
		},
		{
			Name:     models.StepStress,
			Key:      "stress",
			Prompt:   "How would you rate your stress level? (1-10)",
			Validate: Numeric(),
		},
		{
			Name:     models.StepDiet,
			Key:      "diet",
			Prompt:   "How would you rate your diet quality? (1-10)",
			Validate: Numeric(),
		},
		{
			Name:     models.StepSmoking,
			Key:      "smoking",
			Prompt:   "Do you smoke? (yes/no)",
			Validate: YesNo(),
		},
		{
			Name:     models.StepAlcohol,
			Key:      "alcohol",
			Prompt:   "How many alcoholic drinks do you have per week? (0-50)",
			Validate: Numeric(),
		},
	},
}

// Fitness collects workout preferences.
var Fitness = &Definition{
	Type: models.FlowFitness,
	Steps: []Step{
		{
			Name:     models.StepGoals,
			Key:      "goals",
			Prompt:   "What are your fitness goals? (e.g. lose weight, build muscle, stay active)",
			Validate: NonEmpty("Please describe your fitness goals."),
		},
		{
			Name:     models.StepFitFrequency,
			Key:      "frequency",
			Prompt:   "How many days per week can you work out? (1-7)",
			Validate: IntRange(1, 7),
		},
		{
			Name:     models.StepEquipment,
			Key:      "equipment",
			Prompt:   "What equipment do you have access to? (e.g. none, dumbbells, full gym)",
			Validate: NonEmpty("Please tell me what equipment you have, or 'none'."),
		},
	},
}

// Meals collects meal-plan preferences.
var Meals = &Definition{
	Type: models.FlowMeals,
	Steps: []Step{
		{
			Name:     models.StepPreferences,
			Key:      "preferences",
			Prompt:   "Any dietary preferences? (e.g. vegetarian, high protein, no preference)",
			Validate: NonEmpty("Please tell me your dietary preferences, or 'none'."),
		},
		{
			Name:     models.StepAllergies,
			Key:      "allergies",
			Prompt:   "Any food allergies?",
			Validate: NonEmpty("Please list your allergies, or 'none'."),
		},
		{
			Name:     models.StepMealFrequency,
			Key:      "meal_frequency",
			Prompt:   "How many meals per day would you like? (3-6)",
			Validate: IntRange(3, 6),
		},
	},
}

// Cycle collects menstrual-cycle history.
var Cycle = &Definition{
	Type: models.FlowCycle,
	Steps: []Step{
		{
			Name:     models.StepLastPeriod,
			Key:      "last_period",
			Prompt:   "When did your last period start? (YYYY-MM-DD)",
			Validate: Date(),
		},
		{
			Name:     models.StepCycleLength,
			Key:      "cycleLength",
			Prompt:   "How long is your average cycle in days? (21-35)",
			Validate: IntRange(21, 35),
		},
	},
}

func init() {
	register(Onboarding)
	register(Assessment)
	register(Fitness)
	register(Meals)
	register(Cycle)
}
