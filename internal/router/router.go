// Package router dispatches every inbound message against the user's
// session and produces the outbound effects.
//
// Routing is split in two phases: route computes the state transition and an
// ordered action list while holding the session (deterministic, no I/O), and
// execute performs the store writes, generation calls and sends afterwards.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/healthmate/internal/flow"
	"github.com/carebridge/healthmate/internal/genai"
	"github.com/carebridge/healthmate/internal/messaging"
	"github.com/carebridge/healthmate/internal/models"
	"github.com/carebridge/healthmate/internal/reminder"
	"github.com/carebridge/healthmate/internal/session"
	"github.com/carebridge/healthmate/internal/store"
)

// DefaultReminderDelay is how long after "remind me later" the assessment
// nudge fires.
const DefaultReminderDelay = 2 * time.Hour

// minQuestionLength gates the free-text health trigger: shorter messages
// fall through to the menu.
const minQuestionLength = 10

// healthKeywords is the fixed vocabulary that marks free text as a health
// question.
var healthKeywords = []string{
	"health", "pain", "symptom", "headache", "fever", "sick", "hurt",
	"doctor", "medicine", "tired", "sleep", "diet", "stress", "period",
	"cramp", "injury",
}

// Generator is the text-generation surface the router depends on,
// satisfied by genai.Client and by test doubles.
type Generator interface {
	GenerateDiagnosis(ctx context.Context, identity, symptoms string) (string, error)
	GenerateHealthAnalysis(ctx context.Context, identity, summary string) (string, error)
	GeneratePeriodTips(ctx context.Context, identity string) (string, error)
	AnswerGeneralQuestion(ctx context.Context, identity, question string) (string, error)
}

// Opts holds configuration options for the Router.
type Opts struct {
	ReminderDelay time.Duration
}

// Option defines a configuration option for the Router.
type Option func(*Opts)

// WithReminderDelay overrides the deferred-assessment reminder delay.
func WithReminderDelay(d time.Duration) Option {
	return func(o *Opts) { o.ReminderDelay = d }
}

// Router owns the per-message dispatch over sessions, records, generation
// and the messaging channel.
type Router struct {
	sessions      session.Store
	records       store.Store
	gen           Generator
	msg           messaging.Service
	reminders     *reminder.Registry
	reminderDelay time.Duration
}

// NewRouter creates a Router over the given collaborators.
func NewRouter(sessions session.Store, records store.Store, gen Generator, msg messaging.Service, reminders *reminder.Registry, opts ...Option) *Router {
	cfg := Opts{ReminderDelay: DefaultReminderDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Router{
		sessions:      sessions,
		records:       records,
		gen:           gen,
		msg:           msg,
		reminders:     reminders,
		reminderDelay: cfg.ReminderDelay,
	}
}

// HandleMessage processes one inbound message end to end: canonicalize the
// sender, load the profile, route under the session lock, then execute the
// resulting actions. It never returns an error; every failure is logged and
// degraded.
func (r *Router) HandleMessage(ctx context.Context, from string, body string) {
	identity, err := r.msg.ValidateAndCanonicalizeRecipient(from)
	if err != nil {
		slog.Error("Dropping message with invalid sender", "error", err, "from", from)
		return
	}

	// The profile read happens before taking the session lock; routing only
	// needs existence and a few read-only fields.
	profile, err := r.records.GetProfile(identity)
	if err != nil {
		slog.Error("Profile lookup failed, treating sender as unknown", "error", err, "identity", identity)
		profile = nil
	}

	var actions []Action
	r.sessions.Update(identity, func(s *models.Session) {
		actions = r.route(s, profile, body, time.Now())
	})

	r.execute(ctx, identity, actions)
}

// route applies the dispatch precedence to one message and returns the
// actions to execute. It must be deterministic given the session, profile,
// input and clock, and must not perform I/O.
func (r *Router) route(s *models.Session, profile *models.Profile, body string, now time.Time) []Action {
	s.LastActivity = now
	input := strings.TrimSpace(body)

	if input == "" {
		return []Action{Reply{msgInvalidMessage}}
	}

	isCommand := strings.HasPrefix(input, CommandMarker)

	// Unknown sender with no active flow: open the consent gate. The guard on
	// Flow means consent is never re-entered without an intervening reset.
	if profile == nil && s.Flow == models.FlowNone && !isCommand {
		s.EnterFlow(models.FlowConsent, "")
		slog.Info("New user, requesting consent", "identity", s.Identity)
		return []Action{Reply{msgTermsAndConsent}}
	}

	// An active assessment pre-empts everything, commands included.
	if s.Flow == models.FlowAssessment {
		return r.advanceFlow(s, input)
	}

	if s.Flow == models.FlowConsent {
		return r.routeConsent(s, input)
	}

	if s.Flow == models.FlowAssessmentChoice {
		return r.routeAssessmentChoice(s, input)
	}

	if s.Flow == models.FlowOnboarding {
		return r.advanceFlow(s, input)
	}

	// Commands pre-empt the remaining flows; an interrupted fitness, meals or
	// cycle flow stays active unless the command enters a new one.
	if isCommand {
		return r.routeCommand(s, profile, input)
	}

	switch s.Flow {
	case models.FlowFitness, models.FlowMeals, models.FlowCycle:
		return r.advanceFlow(s, input)
	}

	if isHealthQuestion(input) {
		return []Action{AnswerQuestion{Question: input}}
	}

	return []Action{Reply{msgMenu}}
}

// routeConsent interprets the reply to the terms-and-consent prompt.
func (r *Router) routeConsent(s *models.Session, input string) []Action {
	switch strings.ToLower(input) {
	case "yes", "y":
		first := flow.Onboarding.First()
		s.EnterFlow(models.FlowOnboarding, first.Name)
		slog.Info("Consent accepted, starting onboarding", "identity", s.Identity)
		return []Action{Reply{"Great! Let's set up your profile. " + first.Prompt}}
	case "no", "n":
		// Declining wipes the session entirely; the store evicts it.
		s.ClearFlow()
		s.Flags = nil
		slog.Info("Consent declined, session destroyed", "identity", s.Identity)
		return []Action{CancelReminder{}, Reply{msgFarewell}}
	default:
		return []Action{Reply{msgConsentRetry}}
	}
}

// routeAssessmentChoice interprets the begin/defer/decline reply after
// onboarding.
func (r *Router) routeAssessmentChoice(s *models.Session, input string) []Action {
	switch strings.ToLower(input) {
	case "1", "yes", "now", "start":
		first := flow.Assessment.First()
		s.EnterFlow(models.FlowAssessment, first.Name)
		return []Action{Reply{first.Prompt}}
	case "2", "later", "remind":
		s.ClearFlow()
		return []Action{ScheduleReminder{Delay: r.reminderDelay}, Reply{msgReminderScheduled}}
	case "3", "no", "skip":
		s.ClearFlow()
		return []Action{Reply{msgMenu}}
	default:
		return []Action{Reply{msgChoiceRetry}}
	}
}

// advanceFlow runs one step of the session's active flow and maps the
// outcome to actions.
func (r *Router) advanceFlow(s *models.Session, input string) []Action {
	def, ok := flow.Get(s.Flow)
	if !ok {
		return r.invariantFailure(s, fmt.Errorf("flow %s has no registered definition", s.Flow))
	}

	res, err := flow.Advance(def, s, input)
	if err != nil {
		return r.invariantFailure(s, err)
	}

	switch res.Outcome {
	case flow.OutcomeRejected, flow.OutcomeAdvanced:
		return []Action{Reply{res.Reply}}
	case flow.OutcomeCompleted:
		return r.completeFlow(s, def.Type, res.Data)
	}
	return nil
}

// completeFlow runs the per-flow completion transition.
func (r *Router) completeFlow(s *models.Session, ft models.FlowType, data map[models.DataKey]string) []Action {
	switch ft {
	case models.FlowOnboarding:
		return r.completeOnboarding(s, data)
	case models.FlowAssessment:
		return r.completeAssessment(s, data)
	case models.FlowFitness:
		return r.completeFitness(s, data)
	case models.FlowMeals:
		return r.completeMeals(s, data)
	case models.FlowCycle:
		return r.completeCycle(s, data)
	}
	return r.invariantFailure(s, fmt.Errorf("flow %s has no completion handler", ft))
}

func (r *Router) completeOnboarding(s *models.Session, data map[models.DataKey]string) []Action {
	p, err := buildProfile(s.Identity, data)
	if err != nil {
		return r.invariantFailure(s, err)
	}
	s.SetFlag(models.FlagOnboarded)
	s.EnterFlow(models.FlowAssessmentChoice, "")
	slog.Info("Onboarding completed", "identity", s.Identity, "bmi", p.BMI)
	return []Action{
		SaveProfile{Profile: p},
		Reply{profileSummary(p)},
		Reply{msgAssessmentOffer},
	}
}

func (r *Router) completeAssessment(s *models.Session, data map[models.DataKey]string) []Action {
	answers, err := flow.ParseAnswers(data)
	if err != nil {
		return r.invariantFailure(s, err)
	}
	score := flow.HealthScore(answers)
	recommendation := flow.Recommendation(score)
	s.ClearFlow()
	slog.Info("Assessment completed", "identity", s.Identity, "score", score)
	return []Action{
		SaveAssessment{Score: score, Data: toStringMap(data), Recommendation: recommendation},
		Reply{fmt.Sprintf("Your health score is %d/100. 📊\n\n%s", score, recommendation)},
		Reply{msgMenu},
	}
}

func (r *Router) completeFitness(s *models.Session, data map[models.DataKey]string) []Action {
	frequency, err := strconv.Atoi(data["frequency"])
	if err != nil {
		return r.invariantFailure(s, fmt.Errorf("fitness frequency is not numeric: %w", err))
	}
	goals, equipment := data["goals"], data["equipment"]
	plan := flow.BuildFitnessPlan(goals, frequency, equipment)
	s.ClearFlow()
	return []Action{
		SaveFitnessPlan{Goals: goals, Frequency: frequency, Equipment: equipment, Plan: plan},
		Reply{plan},
	}
}

func (r *Router) completeMeals(s *models.Session, data map[models.DataKey]string) []Action {
	frequency, err := strconv.Atoi(data["meal_frequency"])
	if err != nil {
		return r.invariantFailure(s, fmt.Errorf("meal frequency is not numeric: %w", err))
	}
	preferences, allergies := data["preferences"], data["allergies"]
	plan := flow.BuildMealPlan(preferences, allergies, frequency)
	s.ClearFlow()
	return []Action{
		SaveMealPlan{Preferences: preferences, Allergies: allergies, Frequency: frequency, Plan: plan},
		Reply{plan},
	}
}

func (r *Router) completeCycle(s *models.Session, data map[models.DataKey]string) []Action {
	lastPeriod, err := time.Parse(flow.DateLayout, data["last_period"])
	if err != nil {
		return r.invariantFailure(s, fmt.Errorf("cycle last period is not a date: %w", err))
	}
	length, err := strconv.Atoi(data["cycleLength"])
	if err != nil {
		return r.invariantFailure(s, fmt.Errorf("cycle length is not numeric: %w", err))
	}
	forecast := flow.ForecastCycle(lastPeriod, length)
	s.ClearFlow()
	return []Action{
		SaveCycleData{
			LastPeriod:   lastPeriod,
			CycleLength:  length,
			NextPeriod:   forecast.NextPeriod,
			Ovulation:    forecast.Ovulation,
			FertileStart: forecast.FertileStart,
			FertileEnd:   forecast.FertileEnd,
		},
		Reply{cycleSummary(forecast)},
	}
}

// invariantFailure recovers from a corrupted flow state: log it, drop the
// flow so the user is not stuck re-asking a step that cannot advance, and
// apologize. Other sessions are unaffected.
func (r *Router) invariantFailure(s *models.Session, err error) []Action {
	slog.Error("Flow state invariant violated", "error", err, "identity", s.Identity, "flow", s.Flow, "step", s.Step)
	s.ClearFlow()
	return []Action{Reply{msgApology}}
}

// execute performs the outbound effects of one routed message, in order.
// Persistence failures are logged and never block the replies that follow.
func (r *Router) execute(ctx context.Context, identity string, actions []Action) {
	for _, a := range actions {
		switch a := a.(type) {
		case Reply:
			r.send(ctx, identity, a.Text)
		case SaveProfile:
			if err := r.records.SaveProfile(a.Profile); err != nil {
				slog.Error("Failed to save profile", "error", err, "identity", identity)
			}
		case SaveAssessment:
			rec := models.Assessment{
				ID:             uuid.NewString(),
				Identity:       identity,
				Score:          a.Score,
				Data:           a.Data,
				Recommendation: a.Recommendation,
				CreatedAt:      time.Now(),
			}
			if err := r.records.SaveAssessment(rec); err != nil {
				slog.Error("Failed to save assessment", "error", err, "identity", identity)
			}
		case SaveFitnessPlan:
			rec := models.FitnessPlan{
				ID:        uuid.NewString(),
				Identity:  identity,
				Goals:     a.Goals,
				Frequency: a.Frequency,
				Equipment: a.Equipment,
				Plan:      a.Plan,
				CreatedAt: time.Now(),
			}
			if err := r.records.SaveFitnessPlan(rec); err != nil {
				slog.Error("Failed to save fitness plan", "error", err, "identity", identity)
			}
		case SaveMealPlan:
			rec := models.MealPlan{
				ID:          uuid.NewString(),
				Identity:    identity,
				Preferences: a.Preferences,
				Allergies:   a.Allergies,
				Frequency:   a.Frequency,
				Plan:        a.Plan,
				CreatedAt:   time.Now(),
			}
			if err := r.records.SaveMealPlan(rec); err != nil {
				slog.Error("Failed to save meal plan", "error", err, "identity", identity)
			}
		case SaveCycleData:
			rec := models.CycleData{
				ID:           uuid.NewString(),
				Identity:     identity,
				LastPeriod:   a.LastPeriod,
				CycleLength:  a.CycleLength,
				NextPeriod:   a.NextPeriod,
				Ovulation:    a.Ovulation,
				FertileStart: a.FertileStart,
				FertileEnd:   a.FertileEnd,
				CreatedAt:    time.Now(),
			}
			if err := r.records.SaveCycleData(rec); err != nil {
				slog.Error("Failed to save cycle data", "error", err, "identity", identity)
			}
		case Diagnose:
			r.runDiagnosis(ctx, identity, a.Symptoms)
		case AnswerQuestion:
			text, err := r.gen.AnswerGeneralQuestion(ctx, identity, a.Question)
			if err != nil {
				slog.Error("Failed to answer question", "error", err, "identity", identity)
				text = genai.FallbackAnswer
			}
			r.send(ctx, identity, text)
		case HealthAnalysis:
			r.send(ctx, identity, r.runHealthAnalysis(ctx, identity))
		case PeriodTips:
			text, err := r.gen.GeneratePeriodTips(ctx, identity)
			if err != nil {
				slog.Error("Failed to generate period tips", "error", err, "identity", identity)
				text = genai.FallbackTips
			}
			r.send(ctx, identity, text)
		case ScheduleReminder:
			r.reminders.Schedule(identity, a.Delay, func() { r.fireReminder(identity) })
		case CancelReminder:
			r.reminders.Cancel(identity)
		}
	}
}

// runDiagnosis generates the symptom analysis, persists the record whether or
// not generation succeeded, and replies.
func (r *Router) runDiagnosis(ctx context.Context, identity, symptoms string) {
	result, err := r.gen.GenerateDiagnosis(ctx, identity, symptoms)
	if err != nil {
		slog.Error("Failed to generate diagnosis", "error", err, "identity", identity)
		result = genai.FallbackDiagnosis
	}

	rec := models.Diagnosis{
		ID:        uuid.NewString(),
		Identity:  identity,
		Symptoms:  symptoms,
		Result:    result,
		CreatedAt: time.Now(),
	}
	if err := r.records.SaveDiagnosis(rec); err != nil {
		slog.Error("Failed to save diagnosis", "error", err, "identity", identity)
	}

	r.send(ctx, identity, result)
}

// runHealthAnalysis builds the stored-data summary and asks the generator to
// narrate it. Without stored data it points the user at /start; on
// generation failure it falls back to the raw summary.
func (r *Router) runHealthAnalysis(ctx context.Context, identity string) string {
	profile, err := r.records.GetProfile(identity)
	if err != nil {
		slog.Error("Failed to load profile for analysis", "error", err, "identity", identity)
	}
	assessment, err := r.records.LatestAssessment(identity)
	if err != nil {
		slog.Error("Failed to load assessment for analysis", "error", err, "identity", identity)
	}

	if profile == nil && assessment == nil {
		return msgNoData
	}

	summary := dataSummary(profile, assessment)
	analysis, err := r.gen.GenerateHealthAnalysis(ctx, identity, summary)
	if err != nil {
		slog.Error("Failed to generate health analysis", "error", err, "identity", identity)
		return summary + "\n\n" + genai.FallbackAnalysis
	}
	return summary + "\n\n" + analysis
}

// fireReminder is the deferred-assessment callback. It goes through the
// session store so the flag write serializes with message handling.
func (r *Router) fireReminder(identity string) {
	r.sessions.Update(identity, func(s *models.Session) {
		s.SetFlag(models.FlagReminderSent)
	})
	slog.Info("Assessment reminder fired", "identity", identity)
	r.send(context.Background(), identity, msgReminder)
}

// send delivers one reply. Send failures are logged, never retried and never
// propagated.
func (r *Router) send(ctx context.Context, to, text string) {
	if err := r.msg.SendMessage(ctx, to, text); err != nil {
		slog.Error("Failed to send reply", "error", err, "to", to)
	}
}

// isHealthQuestion reports whether free text should be answered as a health
// question.
func isHealthQuestion(input string) bool {
	if len(input) < minQuestionLength {
		return false
	}
	lower := strings.ToLower(input)
	for _, kw := range healthKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// buildProfile assembles the profile record from validated onboarding data.
func buildProfile(identity string, data map[models.DataKey]string) (models.Profile, error) {
	age, err := strconv.Atoi(data["age"])
	if err != nil {
		return models.Profile{}, fmt.Errorf("onboarding age is not numeric: %w", err)
	}
	height, err := strconv.ParseFloat(data["height"], 64)
	if err != nil {
		return models.Profile{}, fmt.Errorf("onboarding height is not numeric: %w", err)
	}
	weight, err := strconv.ParseFloat(data["weight"], 64)
	if err != nil {
		return models.Profile{}, fmt.Errorf("onboarding weight is not numeric: %w", err)
	}
	sex := models.Sex(data["sex"])
	if !models.IsValidSex(sex) {
		return models.Profile{}, fmt.Errorf("onboarding sex %q is not a valid value", data["sex"])
	}

	now := time.Now()
	heightM := height / 100
	return models.Profile{
		Identity:       identity,
		Name:           data["name"],
		Age:            age,
		Sex:            sex,
		HeightCm:       height,
		WeightKg:       weight,
		BMI:            weight / (heightM * heightM),
		MedicalHistory: data["medical_history"],
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func toStringMap(data map[models.DataKey]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[string(k)] = v
	}
	return out
}
