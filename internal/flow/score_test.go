package flow

import (
	"strings"
	"testing"

	"github.com/carebridge/healthmate/internal/models"
)

func TestHealthScorePerfect(t *testing.T) {
	a := Answers{Sleep: 8, Water: 9, Exercise: 4, Stress: 3, Diet: 8, Smoking: "no", Alcohol: 2}
	if got := HealthScore(a); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestHealthScoreEveryDeduction(t *testing.T) {
	// All seven deductions apply: 100-10-5-15-10-10-20-5 = 25.
	a := Answers{Sleep: 5, Water: 3, Exercise: 1, Stress: 9, Diet: 3, Smoking: "yes", Alcohol: 10}
	if got := HealthScore(a); got != 25 {
		t.Errorf("expected 25, got %d", got)
	}
}

func TestHealthScoreWorkedExample(t *testing.T) {
	a := Answers{Sleep: 5, Water: 10, Exercise: 1, Stress: 9, Diet: 3, Smoking: "yes", Alcohol: 10}
	got := HealthScore(a)
	if got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
	rec := Recommendation(got)
	if !strings.Contains(rec, "consider lifestyle changes") {
		t.Errorf("expected lowest tier recommendation, got %q", rec)
	}
}

func TestHealthScoreBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		answers Answers
		want    int
	}{
		{"sleep exactly 7 keeps points", Answers{Sleep: 7, Water: 8, Exercise: 3, Stress: 7, Diet: 5, Smoking: "no", Alcohol: 7}, 100},
		{"sleep 6 loses 10", Answers{Sleep: 6, Water: 8, Exercise: 3, Stress: 7, Diet: 5, Smoking: "no", Alcohol: 7}, 90},
		{"stress 8 loses 10", Answers{Sleep: 7, Water: 8, Exercise: 3, Stress: 8, Diet: 5, Smoking: "no", Alcohol: 7}, 90},
		{"alcohol 8 loses 5", Answers{Sleep: 7, Water: 8, Exercise: 3, Stress: 7, Diet: 5, Smoking: "no", Alcohol: 8}, 95},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := HealthScore(c.answers); got != c.want {
				t.Errorf("expected %d, got %d", c.want, got)
			}
		})
	}
}

func TestRecommendationTiers(t *testing.T) {
	if rec := Recommendation(80); !strings.Contains(rec, "Excellent") {
		t.Errorf("score 80 should be top tier, got %q", rec)
	}
	if rec := Recommendation(79); !strings.Contains(rec, "doing well") {
		t.Errorf("score 79 should be middle tier, got %q", rec)
	}
	if rec := Recommendation(60); !strings.Contains(rec, "doing well") {
		t.Errorf("score 60 should be middle tier, got %q", rec)
	}
	if rec := Recommendation(59); !strings.Contains(rec, "consider lifestyle changes") {
		t.Errorf("score 59 should be bottom tier, got %q", rec)
	}
}

func TestParseAnswers(t *testing.T) {
	data := map[models.DataKey]string{
		"sleep": "8", "water": "9", "exercise": "4", "stress": "3",
		"diet": "8", "smoking": "no", "alcohol": "2",
	}
	a, err := ParseAnswers(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Sleep != 8 || a.Smoking != "no" || a.Alcohol != 2 {
		t.Errorf("unexpected parse result: %+v", a)
	}
}

func TestParseAnswersMissingKeyIsError(t *testing.T) {
	data := map[models.DataKey]string{"sleep": "8"}
	if _, err := ParseAnswers(data); err == nil {
		t.Error("expected error for missing keys")
	}
}
