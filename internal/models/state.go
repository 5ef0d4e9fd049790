// Package models defines session and flow state types to avoid circular imports.
package models

import "time"

// FlowType identifies a multi-step dialogue flow.
type FlowType string

// StepName identifies one question/validation unit within a flow.
type StepName string

// DataKey is a key for a validated value accumulated during a flow.
type DataKey string

// SessionFlag is an independent boolean not tied to a flow.
type SessionFlag string

// Flow type constants. FlowNone means the session has no active flow.
const (
	FlowNone             FlowType = ""
	FlowConsent          FlowType = "consent"
	FlowOnboarding       FlowType = "onboarding"
	FlowAssessmentChoice FlowType = "assessment_choice"
	FlowAssessment       FlowType = "assessment"
	FlowFitness          FlowType = "fitness"
	FlowMeals            FlowType = "meals"
	FlowCycle            FlowType = "cycle"
)

// Onboarding steps.
const (
	StepFullName       StepName = "name"
	StepAge            StepName = "age"
	StepSex            StepName = "sex"
	StepHeight         StepName = "height"
	StepWeight         StepName = "weight"
	StepMedicalHistory StepName = "medical_history"
)

// Assessment steps.
const (
	StepSleep    StepName = "sleep"
	StepWater    StepName = "water"
	StepExercise StepName = "exercise"
	StepStress   StepName = "stress"
	StepDiet     StepName = "diet"
	StepSmoking  StepName = "smoking"
	StepAlcohol  StepName = "alcohol"
)

// Fitness steps.
const (
	StepGoals        StepName = "goals"
	StepFitFrequency StepName = "frequency"
	StepEquipment    StepName = "equipment"
)

// Meals steps.
const (
	StepPreferences   StepName = "preferences"
	StepAllergies     StepName = "allergies"
	StepMealFrequency StepName = "meal_frequency"
)

// Cycle steps.
const (
	StepLastPeriod  StepName = "last_period"
	StepCycleLength StepName = "cycleLength"
)

// Session flags.
const (
	FlagOnboarded    SessionFlag = "onboarded"
	FlagReminderSent SessionFlag = "reminder_sent"
)

// Session is the per-user mutable record tracking the current dialogue flow
// and accumulated answers. A session has at most one active flow; entering a
// new flow discards any prior flow state.
type Session struct {
	Identity     string               `json:"identity"`
	Flow         FlowType             `json:"flow"`
	Step         StepName             `json:"step,omitempty"`
	Data         map[DataKey]string   `json:"data,omitempty"`
	Flags        map[SessionFlag]bool `json:"flags,omitempty"`
	LastActivity time.Time            `json:"last_activity"`
}

// EnterFlow switches the session into the given flow at the given step,
// discarding any previously accumulated flow data.
func (s *Session) EnterFlow(flow FlowType, step StepName) {
	s.Flow = flow
	s.Step = step
	s.Data = make(map[DataKey]string)
}

// ClearFlow drops the active flow and its accumulated data, keeping flags.
func (s *Session) ClearFlow() {
	s.Flow = FlowNone
	s.Step = ""
	s.Data = nil
}

// SetFlag sets an independent session flag.
func (s *Session) SetFlag(flag SessionFlag) {
	if s.Flags == nil {
		s.Flags = make(map[SessionFlag]bool)
	}
	s.Flags[flag] = true
}

// HasFlag reports whether the given flag is set.
func (s *Session) HasFlag(flag SessionFlag) bool {
	return s.Flags[flag]
}

// Empty reports whether the session carries no state at all. An empty
// session is equivalent to absence from the store and may be evicted.
func (s *Session) Empty() bool {
	return s.Flow == FlowNone && len(s.Flags) == 0
}
