// Package router defines the outbound actions produced by routing.
//
// Routing a message computes an ordered action list under the session lock;
// the executor performs the collaborator I/O after the lock is released.
package router

import (
	"time"

	"github.com/carebridge/healthmate/internal/models"
)

// Action is one outbound effect of routing a message.
type Action interface {
	action()
}

// Reply sends a text message back to the user.
type Reply struct {
	Text string
}

// SaveProfile persists an onboarding profile.
type SaveProfile struct {
	Profile models.Profile
}

// SaveAssessment persists a completed assessment.
type SaveAssessment struct {
	Score          int
	Data           map[string]string
	Recommendation string
}

// SaveFitnessPlan persists a built fitness plan (best effort; the plan is
// sent to the user even when persistence fails).
type SaveFitnessPlan struct {
	Goals     string
	Frequency int
	Equipment string
	Plan      string
}

// SaveMealPlan persists a built meal plan (best effort).
type SaveMealPlan struct {
	Preferences string
	Allergies   string
	Frequency   int
	Plan        string
}

// SaveCycleData persists a cycle computation.
type SaveCycleData struct {
	LastPeriod   time.Time
	CycleLength  int
	NextPeriod   time.Time
	Ovulation    time.Time
	FertileStart time.Time
	FertileEnd   time.Time
}

// Diagnose generates a symptom analysis, persists it regardless of
// generation success, and replies (with the safety fallback on failure).
type Diagnose struct {
	Symptoms string
}

// AnswerQuestion forwards a free-text health question to the generation
// service and replies with the answer.
type AnswerQuestion struct {
	Question string
}

// HealthAnalysis replies with a generated summary of the stored profile and
// latest assessment.
type HealthAnalysis struct{}

// PeriodTips replies with generated menstrual wellness tips.
type PeriodTips struct{}

// ScheduleReminder arms the deferred-assessment reminder, replacing any
// pending reminder for the user.
type ScheduleReminder struct {
	Delay time.Duration
}

// CancelReminder drops any pending reminder for the user.
type CancelReminder struct{}

func (Reply) action()            {}
func (SaveProfile) action()      {}
func (SaveAssessment) action()   {}
func (SaveFitnessPlan) action()  {}
func (SaveMealPlan) action()     {}
func (SaveCycleData) action()    {}
func (Diagnose) action()         {}
func (AnswerQuestion) action()   {}
func (HealthAnalysis) action()   {}
func (PeriodTips) action()       {}
func (ScheduleReminder) action() {}
func (CancelReminder) action()   {}
