package flow

import (
	"testing"

	"github.com/carebridge/healthmate/internal/models"
)

func newSession(flow models.FlowType, step models.StepName) *models.Session {
	s := &models.Session{Identity: "15551234567"}
	s.EnterFlow(flow, step)
	return s
}

func TestAdvanceRejectionKeepsStep(t *testing.T) {
	s := newSession(models.FlowOnboarding, models.StepAge)

	res, err := Advance(Onboarding, s, "two hundred")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeRejected {
		t.Fatalf("expected rejection, got outcome %v", res.Outcome)
	}
	if res.Reply == "" {
		t.Error("expected a correction prompt")
	}
	if s.Step != models.StepAge {
		t.Errorf("step moved on rejection: %v", s.Step)
	}
	if len(s.Data) != 0 {
		t.Errorf("data mutated on rejection: %v", s.Data)
	}
}

func TestAdvanceAcceptanceMovesToNextStep(t *testing.T) {
	s := newSession(models.FlowOnboarding, models.StepAge)

	res, err := Advance(Onboarding, s, " 30 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeAdvanced {
		t.Fatalf("expected advance, got outcome %v", res.Outcome)
	}
	if s.Step != models.StepSex {
		t.Errorf("expected step sex, got %v", s.Step)
	}
	if s.Data["age"] != "30" {
		t.Errorf("expected trimmed normalized value, got %q", s.Data["age"])
	}
	if res.Reply != Onboarding.Steps[2].Prompt {
		t.Errorf("expected next-step prompt, got %q", res.Reply)
	}
}

func TestAdvanceFinalStepCompletes(t *testing.T) {
	s := newSession(models.FlowOnboarding, models.StepMedicalHistory)
	s.Data["name"] = "Ada"

	res, err := Advance(Onboarding, s, "none")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected completion, got outcome %v", res.Outcome)
	}
	if res.Data["medical_history"] != "none" {
		t.Errorf("completion data missing final answer: %v", res.Data)
	}
	if res.Data["name"] != "Ada" {
		t.Errorf("completion data lost earlier answers: %v", res.Data)
	}
}

func TestAdvanceUnknownStepIsError(t *testing.T) {
	s := newSession(models.FlowOnboarding, "nonexistent")

	if _, err := Advance(Onboarding, s, "hello"); err == nil {
		t.Error("expected error for step missing from the definition")
	}
}

func TestGetKnowsEveryRegisteredFlow(t *testing.T) {
	for _, ft := range []models.FlowType{
		models.FlowOnboarding,
		models.FlowAssessment,
		models.FlowFitness,
		models.FlowMeals,
		models.FlowCycle,
	} {
		def, ok := Get(ft)
		if !ok {
			t.Errorf("flow %s not registered", ft)
			continue
		}
		if len(def.Steps) == 0 {
			t.Errorf("flow %s has no steps", ft)
		}
		if def.First().Name != def.Steps[0].Name {
			t.Errorf("flow %s First() disagrees with Steps[0]", ft)
		}
	}
}
