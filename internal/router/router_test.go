package router

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/carebridge/healthmate/internal/messaging"
	"github.com/carebridge/healthmate/internal/models"
	"github.com/carebridge/healthmate/internal/reminder"
	"github.com/carebridge/healthmate/internal/session"
	"github.com/carebridge/healthmate/internal/store"
)

const testIdentity = "15551234567"

type stubGenerator struct {
	diagnoseErr error
	answerErr   error
	analysisErr error
	tipsErr     error
}

func (g *stubGenerator) GenerateDiagnosis(ctx context.Context, identity, symptoms string) (string, error) {
	if g.diagnoseErr != nil {
		return "", g.diagnoseErr
	}
	return "analysis: " + symptoms, nil
}

func (g *stubGenerator) GenerateHealthAnalysis(ctx context.Context, identity, summary string) (string, error) {
	if g.analysisErr != nil {
		return "", g.analysisErr
	}
	return "coach notes", nil
}

func (g *stubGenerator) GeneratePeriodTips(ctx context.Context, identity string) (string, error) {
	if g.tipsErr != nil {
		return "", g.tipsErr
	}
	return "period tips", nil
}

func (g *stubGenerator) AnswerGeneralQuestion(ctx context.Context, identity, question string) (string, error) {
	if g.answerErr != nil {
		return "", g.answerErr
	}
	return "answer: " + question, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fixture struct {
	sessions  *session.MemoryStore
	records   *store.InMemoryStore
	gen       *stubGenerator
	msg       *messaging.MockService
	reminders *reminder.Registry
	clock     *fakeClock
	router    *Router
}

func newFixture() *fixture {
	f := &fixture{
		sessions: session.NewMemoryStore(),
		records:  store.NewInMemoryStore(),
		gen:      &stubGenerator{},
		msg:      messaging.NewMockService(),
		clock:    &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.reminders = reminder.NewRegistry(reminder.WithClock(f.clock))
	f.router = NewRouter(f.sessions, f.records, f.gen, f.msg, f.reminders)
	return f
}

func (f *fixture) handle(text string) {
	f.router.HandleMessage(context.Background(), testIdentity, text)
}

func (f *fixture) lastReply(t *testing.T) string {
	t.Helper()
	sent, ok := f.msg.LastSent()
	if !ok {
		t.Fatal("expected a reply to have been sent")
	}
	return sent.Body
}

func (f *fixture) saveProfile(t *testing.T, sex models.Sex) {
	t.Helper()
	err := f.records.SaveProfile(models.Profile{
		Identity: testIdentity,
		Name:     "Ada",
		Age:      30,
		Sex:      sex,
		HeightCm: 175,
		WeightKg: 70,
		BMI:      22.9,
	})
	if err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
}

func TestEmptyMessageLeavesNoState(t *testing.T) {
	f := newFixture()

	f.handle("   ")

	if got := f.lastReply(t); got != msgInvalidMessage {
		t.Errorf("expected invalid-message reply, got %q", got)
	}
	if _, ok := f.sessions.Peek(testIdentity); ok {
		t.Error("empty input must not leave a session behind")
	}
}

func TestUnknownUserGetsConsentOnce(t *testing.T) {
	f := newFixture()

	f.handle("hello")
	if got := f.lastReply(t); got != msgTermsAndConsent {
		t.Errorf("expected consent prompt, got %q", got)
	}
	sess, ok := f.sessions.Peek(testIdentity)
	if !ok || sess.Flow != models.FlowConsent {
		t.Fatalf("expected consent flow, got %+v", sess)
	}

	// A second unrecognized message re-prompts; it must not replay the full
	// terms.
	f.handle("what is this")
	if got := f.lastReply(t); got != msgConsentRetry {
		t.Errorf("expected consent retry, got %q", got)
	}
}

func TestConsentYesStartsOnboarding(t *testing.T) {
	f := newFixture()

	f.handle("hello")
	f.handle("yes")

	sess, _ := f.sessions.Peek(testIdentity)
	if sess.Flow != models.FlowOnboarding || sess.Step != models.StepFullName {
		t.Errorf("expected onboarding at name step, got %+v", sess)
	}
	if got := f.lastReply(t); !strings.Contains(got, "name") {
		t.Errorf("expected name prompt, got %q", got)
	}
}

func TestConsentNoDestroysSession(t *testing.T) {
	f := newFixture()

	f.handle("hello")
	f.handle("no")

	if _, ok := f.sessions.Peek(testIdentity); ok {
		t.Error("declining consent must destroy the session")
	}
	if got := f.lastReply(t); got != msgFarewell {
		t.Errorf("expected farewell, got %q", got)
	}

	// The next message starts over from the consent gate.
	f.handle("hello again")
	if got := f.lastReply(t); got != msgTermsAndConsent {
		t.Errorf("expected consent prompt after reset, got %q", got)
	}
}

func TestFullOnboardingAndAssessment(t *testing.T) {
	f := newFixture()

	for _, msg := range []string{"hi", "yes", "Ada", "30", "female", "175", "70", "none"} {
		f.handle(msg)
	}

	profile, err := f.records.GetProfile(testIdentity)
	if err != nil || profile == nil {
		t.Fatalf("expected persisted profile, got %v, err %v", profile, err)
	}
	if profile.Name != "Ada" || profile.Age != 30 || profile.Sex != models.SexFemale {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if math.Abs(profile.BMI-22.857) > 0.01 {
		t.Errorf("expected BMI ~22.86, got %.3f", profile.BMI)
	}

	sess, _ := f.sessions.Peek(testIdentity)
	if sess.Flow != models.FlowAssessmentChoice {
		t.Fatalf("expected assessment choice after onboarding, got %v", sess.Flow)
	}
	if !sess.HasFlag(models.FlagOnboarded) {
		t.Error("expected onboarded flag set")
	}
	if got := f.lastReply(t); got != msgAssessmentOffer {
		t.Errorf("expected assessment offer, got %q", got)
	}

	// Begin the assessment and answer all seven questions.
	f.handle("1")
	for _, msg := range []string{"5", "10", "1", "9", "3", "yes", "10"} {
		f.handle(msg)
	}

	assessments := f.records.Assessments()
	if len(assessments) != 1 {
		t.Fatalf("expected 1 persisted assessment, got %d", len(assessments))
	}
	if assessments[0].Score != 30 {
		t.Errorf("expected score 30, got %d", assessments[0].Score)
	}

	sess, _ = f.sessions.Peek(testIdentity)
	if sess.Flow != models.FlowNone {
		t.Errorf("expected flow cleared after assessment, got %v", sess.Flow)
	}

	sent := f.msg.Sent()
	scoreReply := sent[len(sent)-2].Body
	if !strings.Contains(scoreReply, "30/100") {
		t.Errorf("expected score reply, got %q", scoreReply)
	}
	if !strings.Contains(scoreReply, "consider lifestyle changes") {
		t.Errorf("expected bottom tier recommendation, got %q", scoreReply)
	}
}

func TestOnboardingRejectionKeepsStepAndPersistsNothing(t *testing.T) {
	f := newFixture()

	for _, msg := range []string{"hi", "yes", "Ada"} {
		f.handle(msg)
	}
	f.handle("200") // age out of range

	sess, _ := f.sessions.Peek(testIdentity)
	if sess.Step != models.StepAge {
		t.Errorf("expected age step retained, got %v", sess.Step)
	}
	profile, _ := f.records.GetProfile(testIdentity)
	if profile != nil {
		t.Error("no profile must be persisted before onboarding completes")
	}
}

func TestActiveAssessmentPreemptsCommands(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexFemale)

	f.sessions.Update(testIdentity, func(s *models.Session) {
		s.EnterFlow(models.FlowAssessment, models.StepSleep)
	})

	f.handle("/start")

	sess, _ := f.sessions.Peek(testIdentity)
	if sess.Flow != models.FlowAssessment || sess.Step != models.StepSleep {
		t.Errorf("command must not interrupt an active assessment, got %+v", sess)
	}
	if got := f.lastReply(t); !strings.Contains(got, "number") {
		t.Errorf("expected numeric correction prompt, got %q", got)
	}
}

func TestDeferredAssessmentReminder(t *testing.T) {
	f := newFixture()

	for _, msg := range []string{"hi", "yes", "Ada", "30", "female", "175", "70", "none"} {
		f.handle(msg)
	}
	f.handle("2")

	if got := f.lastReply(t); got != msgReminderScheduled {
		t.Errorf("expected reminder confirmation, got %q", got)
	}
	if !f.reminders.Pending(testIdentity) {
		t.Fatal("expected a pending reminder")
	}

	f.reminders.FireDue(f.clock.now.Add(DefaultReminderDelay))

	sess, ok := f.sessions.Peek(testIdentity)
	if !ok || !sess.HasFlag(models.FlagReminderSent) {
		t.Errorf("expected reminder-sent flag, got %+v", sess)
	}
	if got := f.lastReply(t); got != msgReminder {
		t.Errorf("expected reminder message, got %q", got)
	}
}

func TestNewFlowCommandDiscardsInProgressFlow(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexFemale)

	f.handle("/meals")
	f.handle("vegetarian")
	f.handle("/fit")

	sess, _ := f.sessions.Peek(testIdentity)
	if sess.Flow != models.FlowFitness || sess.Step != models.StepGoals {
		t.Fatalf("expected fitness flow at goals step, got %+v", sess)
	}
	if _, ok := sess.Data["preferences"]; ok {
		t.Error("meals data must be discarded when a new flow starts")
	}
}

func TestFitnessFlowBuildsAndPersistsPlan(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("/fit")
	for _, msg := range []string{"build muscle", "3", "dumbbells"} {
		f.handle(msg)
	}

	plans := f.records.FitnessPlans()
	if len(plans) != 1 {
		t.Fatalf("expected 1 fitness plan, got %d", len(plans))
	}
	if plans[0].Frequency != 3 || plans[0].Goals != "build muscle" {
		t.Errorf("unexpected plan record: %+v", plans[0])
	}
	if got := f.lastReply(t); !strings.Contains(got, "Day 3:") {
		t.Errorf("expected 3-day plan reply, got %q", got)
	}

	sess, ok := f.sessions.Peek(testIdentity)
	if ok && sess.Flow != models.FlowNone {
		t.Errorf("expected flow cleared, got %v", sess.Flow)
	}
}

func TestMealsFlowBuildsAndPersistsPlan(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("/meals")
	for _, msg := range []string{"vegetarian", "none", "4"} {
		f.handle(msg)
	}

	if got := f.lastReply(t); !strings.Contains(got, "meal plan") {
		t.Errorf("expected meal plan reply, got %q", got)
	}
	if len(f.records.MealPlans()) != 1 {
		t.Errorf("expected persisted meal plan")
	}
}

func TestCycleRestrictedToFemaleProfiles(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("/cycle")

	if got := f.lastReply(t); got != msgCycleRestricted {
		t.Errorf("expected restriction reply, got %q", got)
	}
	if sess, ok := f.sessions.Peek(testIdentity); ok && sess.Flow == models.FlowCycle {
		t.Error("cycle flow must not start for a male profile")
	}
}

func TestCycleFlowForecast(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexFemale)

	f.handle("/cycle")
	f.handle("2024-01-01")
	f.handle("28")

	records := f.records.CycleRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 cycle record, got %d", len(records))
	}
	rec := records[0]
	if got := rec.NextPeriod.Format("2006-01-02"); got != "2024-01-29" {
		t.Errorf("next period: expected 2024-01-29, got %s", got)
	}
	if got := rec.Ovulation.Format("2006-01-02"); got != "2024-01-15" {
		t.Errorf("ovulation: expected 2024-01-15, got %s", got)
	}

	reply := f.lastReply(t)
	for _, want := range []string{"2024-01-29", "2024-01-15", "2024-01-10", "2024-01-16"} {
		if !strings.Contains(reply, want) {
			t.Errorf("forecast reply missing %s:\n%s", want, reply)
		}
	}
}

func TestDiagnoseCommand(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("/diagnose headache and fever")

	if got := f.lastReply(t); got != "analysis: headache and fever" {
		t.Errorf("expected generated analysis, got %q", got)
	}
	diagnoses := f.records.Diagnoses()
	if len(diagnoses) != 1 || diagnoses[0].Symptoms != "headache and fever" {
		t.Errorf("unexpected diagnosis records: %+v", diagnoses)
	}
}

func TestDiagnoseFallbackStillPersists(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)
	f.gen.diagnoseErr = errors.New("api down")

	f.handle("/diagnose sore throat")

	reply := f.lastReply(t)
	if !strings.Contains(reply, "red-flag") {
		t.Errorf("expected safety fallback, got %q", reply)
	}
	diagnoses := f.records.Diagnoses()
	if len(diagnoses) != 1 {
		t.Fatalf("diagnosis must be persisted even when generation fails, got %d", len(diagnoses))
	}
	if diagnoses[0].Result != reply {
		t.Error("persisted result must match the reply")
	}
}

func TestDiagnoseWithoutSymptomsShowsUsage(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("/diagnose")

	if got := f.lastReply(t); got != msgDiagnoseUsage {
		t.Errorf("expected usage reply, got %q", got)
	}
	if len(f.records.Diagnoses()) != 0 {
		t.Error("no diagnosis must be recorded without symptoms")
	}
}

func TestHealthKeywordFreeText(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("I have a headache since this morning")

	if got := f.lastReply(t); got != "answer: I have a headache since this morning" {
		t.Errorf("expected generated answer, got %q", got)
	}
}

func TestNonHealthFreeTextGetsMenu(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("what a lovely afternoon outside")

	if got := f.lastReply(t); got != msgMenu {
		t.Errorf("expected menu fallback, got %q", got)
	}
}

func TestShortHealthTextGetsMenu(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("sick")

	if got := f.lastReply(t); got != msgMenu {
		t.Errorf("short text must fall through to the menu, got %q", got)
	}
}

func TestDataCommandSummarizesStoredData(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexFemale)
	if err := f.records.SaveAssessment(models.Assessment{
		ID: "a1", Identity: testIdentity, Score: 85, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("failed to seed assessment: %v", err)
	}

	f.handle("/data")

	reply := f.lastReply(t)
	for _, want := range []string{"Ada", "85/100", "coach notes"} {
		if !strings.Contains(reply, want) {
			t.Errorf("data summary missing %q:\n%s", want, reply)
		}
	}
}

func TestDataCommandWithoutRecords(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	// Profile exists, so the summary renders even with no assessment.
	f.handle("/data")
	if got := f.lastReply(t); !strings.Contains(got, "No health assessment") {
		t.Errorf("expected missing-assessment note, got %q", got)
	}
}

func TestPeriodTipsCommand(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexFemale)

	f.handle("/periodtips")
	if got := f.lastReply(t); got != "period tips" {
		t.Errorf("expected generated tips, got %q", got)
	}

	f.gen.tipsErr = errors.New("api down")
	f.handle("/periodtips")
	if got := f.lastReply(t); !strings.Contains(got, "hydrated") {
		t.Errorf("expected tips fallback, got %q", got)
	}
}

func TestStartCommandForKnownUser(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("/start")

	if got := f.lastReply(t); !strings.Contains(got, "Ada") || !strings.Contains(got, "/diagnose") {
		t.Errorf("expected personalized menu, got %q", got)
	}
}

func TestStartCommandForUnknownUserOpensConsent(t *testing.T) {
	f := newFixture()

	f.handle("/start")

	if got := f.lastReply(t); got != msgTermsAndConsent {
		t.Errorf("expected consent prompt, got %q", got)
	}
	sess, _ := f.sessions.Peek(testIdentity)
	if sess.Flow != models.FlowConsent {
		t.Errorf("expected consent flow, got %v", sess.Flow)
	}
}

func TestUnknownCommandGetsHelp(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("/frobnicate")

	if got := f.lastReply(t); got != msgHelp {
		t.Errorf("expected help text, got %q", got)
	}
}

func TestCommandsAreCaseInsensitive(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	f.handle("/HELP")

	if got := f.lastReply(t); got != msgHelp {
		t.Errorf("expected help text for uppercase command, got %q", got)
	}
}

func TestCorruptedFlowStepRecoversWithApology(t *testing.T) {
	f := newFixture()
	f.saveProfile(t, models.SexMale)

	// A step name the fitness definition does not know can never advance;
	// the flow must be dropped so the user is not stuck.
	f.sessions.Update(testIdentity, func(s *models.Session) {
		s.EnterFlow(models.FlowFitness, "warmup")
	})

	f.handle("build muscle")

	if got := f.lastReply(t); got != msgApology {
		t.Errorf("expected apology, got %q", got)
	}
	sess, ok := f.sessions.Peek(testIdentity)
	if ok && sess.Flow != models.FlowNone {
		t.Errorf("expected corrupted flow cleared, got %v", sess.Flow)
	}

	// The next message routes normally again.
	f.handle("/fit")
	sess, _ = f.sessions.Peek(testIdentity)
	if sess.Flow != models.FlowFitness || sess.Step != models.StepGoals {
		t.Errorf("expected a fresh fitness flow, got %+v", sess)
	}
}

func TestSendFailureDoesNotCorruptState(t *testing.T) {
	f := newFixture()
	f.msg.FailSends(errors.New("network down"))

	f.handle("hello")

	// The reply was lost, but the state transition stands.
	sess, ok := f.sessions.Peek(testIdentity)
	if !ok || sess.Flow != models.FlowConsent {
		t.Errorf("state transition must survive a failed send, got %+v", sess)
	}
}
