package flow

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildFitnessPlanDayCountMatchesFrequency(t *testing.T) {
	plan := BuildFitnessPlan("build muscle", 3, "dumbbells")

	for day := 1; day <= 3; day++ {
		if !strings.Contains(plan, fmt.Sprintf("Day %d:", day)) {
			t.Errorf("plan missing day %d:\n%s", day, plan)
		}
	}
	if strings.Contains(plan, "Day 4:") {
		t.Errorf("plan has more days than requested:\n%s", plan)
	}
	if !strings.Contains(plan, "strength") {
		t.Errorf("muscle goal should pick the strength split:\n%s", plan)
	}
}

func TestBuildFitnessPlanWeightLossSplit(t *testing.T) {
	plan := BuildFitnessPlan("lose weight", 2, "none")
	if !strings.Contains(plan, "cardio") {
		t.Errorf("weight goal should pick the cardio split:\n%s", plan)
	}
}

func TestBuildMealPlanLabels(t *testing.T) {
	plan := BuildMealPlan("vegetarian", "peanuts", 4)

	for _, label := range []string{"Breakfast:", "Lunch:", "Dinner:", "Snack 1:"} {
		if !strings.Contains(plan, label) {
			t.Errorf("plan missing %q:\n%s", label, plan)
		}
	}
	if strings.Contains(plan, "Snack 2:") {
		t.Errorf("4 meals should not include a second snack:\n%s", plan)
	}
	if !strings.Contains(plan, "peanuts") {
		t.Errorf("allergy warning missing:\n%s", plan)
	}
}

func TestBuildMealPlanNoAllergyWarningForNone(t *testing.T) {
	plan := BuildMealPlan("high protein", "none", 3)
	if strings.Contains(plan, "checked against your allergies") {
		t.Errorf("no allergy warning expected for 'none':\n%s", plan)
	}
}
