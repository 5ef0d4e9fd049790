// Package flow implements the deterministic health score over the
// assessment answers.
package flow

import (
	"fmt"
	"strconv"

	"github.com/carebridge/healthmate/internal/models"
)

// Answers holds the seven parsed assessment values.
type Answers struct {
	Sleep    int
	Water    int
	Exercise int
	Stress   int
	Diet     int
	Smoking  string
	Alcohol  int
}

// ParseAnswers reads the validated assessment data accumulated by the flow.
// Missing or non-numeric values are invariant violations: the validators
// guarantee every key holds an integer (or yes/no for smoking).
func ParseAnswers(data map[models.DataKey]string) (Answers, error) {
	var a Answers
	var err error
	if a.Sleep, err = intField(data, "sleep"); err != nil {
		return a, err
	}
	if a.Water, err = intField(data, "water"); err != nil {
		return a, err
	}
	if a.Exercise, err = intField(data, "exercise"); err != nil {
		return a, err
	}
	if a.Stress, err = intField(data, "stress"); err != nil {
		return a, err
	}
	if a.Diet, err = intField(data, "diet"); err != nil {
		return a, err
	}
	if a.Alcohol, err = intField(data, "alcohol"); err != nil {
		return a, err
	}
	smoking, ok := data["smoking"]
	if !ok {
		return a, fmt.Errorf("assessment data missing %q", "smoking")
	}
	a.Smoking = smoking
	return a, nil
}

func intField(data map[models.DataKey]string, key models.DataKey) (int, error) {
	raw, ok := data[key]
	if !ok {
		return 0, fmt.Errorf("assessment data missing %q", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("assessment field %q is not numeric: %w", key, err)
	}
	return n, nil
}

// HealthScore computes the score: base 100 with fixed deductions, clamped
// at 0. Deductions only lower the base, so no upper clamp is needed.
func HealthScore(a Answers) int {
	score := 100
	if a.Sleep < 7 {
		score -= 10
	}
	if a.Water < 8 {
		score -= 5
	}
	if a.Exercise < 3 {
		score -= 15
	}
	if a.Stress > 7 {
		score -= 10
	}
	if a.Diet < 5 {
		score -= 10
	}
	if a.Smoking == "yes" {
		score -= 20
	}
	if a.Alcohol > 7 {
		score -= 5
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Recommendation maps a score to its recommendation tier.
func Recommendation(score int) string {
	switch {
	case score >= 80:
		return "Excellent! Your lifestyle habits are in great shape - keep it up."
	case score >= 60:
		return "You're doing well overall, with a little room to improve."
	default:
		return "Your score suggests you should consider lifestyle changes. Small steps like better sleep, more water and regular exercise add up quickly."
	}
}
