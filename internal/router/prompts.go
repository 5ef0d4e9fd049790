package router

import (
	"fmt"
	"strings"

	"github.com/carebridge/healthmate/internal/flow"
	"github.com/carebridge/healthmate/internal/models"
)

// Canned reply copy. Flow step prompts live with the flow definitions; these
// are the router-level messages (menus, consent text, errors).
const (
	msgInvalidMessage = "I didn't catch that. Please send a text message."

	msgTermsAndConsent = "Welcome to HealthMate! 👋\n\n" +
		"I'm your personal health companion. I can help you track your health, " +
		"build fitness and meal plans, and answer general wellness questions.\n\n" +
		"Before we begin, please note:\n" +
		"• I am not a doctor and my guidance is not medical advice.\n" +
		"• Your answers are stored so I can personalize your experience.\n" +
		"• For emergencies, always contact local medical services.\n\n" +
		"Do you agree to these terms? (yes/no)"

	msgConsentRetry = "Please reply \"yes\" to accept the terms and continue, or \"no\" to opt out."

	msgFarewell = "No problem. Your data has not been saved. " +
		"If you change your mind, just send me a message anytime. Take care! 👋"

	msgAssessmentOffer = "Would you like to take a quick health assessment now?\n" +
		"1. Yes, let's do it\n" +
		"2. Remind me later\n" +
		"3. No, thanks"

	msgChoiceRetry = "Please reply 1 to begin the assessment, 2 for a reminder later, or 3 to skip."

	msgReminderScheduled = "Sure! I'll check back in with you later about the health assessment."

	msgReminder = "Hi again! 👋 Just a friendly nudge: your health assessment is still " +
		"waiting whenever you're ready. Send /diagnose, /fit, /meals or /start to see what I can do."

	msgMenu = "Here's what I can do:\n" +
		"/start - show this menu\n" +
		"/diagnose <symptoms> - describe symptoms for a general analysis\n" +
		"/fit - build a personalized fitness plan\n" +
		"/meals - build a personalized meal plan\n" +
		"/cycle - track your menstrual cycle\n" +
		"/data - see a summary of your health data\n" +
		"/periodtips - menstrual wellness tips\n" +
		"/help - show available commands"

	msgHelp = "Available commands:\n" +
		"/start - main menu\n" +
		"/diagnose <symptoms> - general symptom analysis (not medical advice)\n" +
		"/fit - personalized fitness plan\n" +
		"/meals - personalized meal plan\n" +
		"/cycle - menstrual cycle tracking\n" +
		"/data - your health data summary\n" +
		"/periodtips - menstrual wellness tips\n" +
		"/help - this message"

	msgDiagnoseUsage = "Please describe your symptoms after the command, " +
		"for example: /diagnose headache and sore throat since yesterday"

	msgCycleRestricted = "Cycle tracking is available for users registered as female. " +
		"You can update your profile by restarting onboarding with /start."

	msgApology = "Sorry, something went wrong on my side. Please try again."

	msgNoData = "I don't have any health data for you yet. Send /start to set up your profile and take the assessment."
)

// greeting prefixes the menu for a returning, onboarded user.
func greeting(name string) string {
	return "Welcome back, " + name + "! 👋\n\n" + msgMenu
}

// profileSummary is the onboarding completion reply.
func profileSummary(p models.Profile) string {
	return fmt.Sprintf("Thanks %s, your profile is saved! ✅\n\nYour BMI is %.1f (%s).",
		p.Name, p.BMI, bmiCategory(p.BMI))
}

// bmiCategory maps a BMI value to its standard label.
func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal weight"
	case bmi < 30:
		return "overweight"
	default:
		return "obese"
	}
}

// cycleSummary is the cycle completion reply.
func cycleSummary(f flow.CycleForecast) string {
	return fmt.Sprintf("🌸 Cycle forecast\n\nNext period: %s\nOvulation: %s\nFertile window: %s to %s\n\nThese are estimates; cycles vary.",
		f.NextPeriod.Format(flow.DateLayout),
		f.Ovulation.Format(flow.DateLayout),
		f.FertileStart.Format(flow.DateLayout),
		f.FertileEnd.Format(flow.DateLayout))
}

// dataSummary formats the stored profile and latest assessment for /data.
func dataSummary(p *models.Profile, a *models.Assessment) string {
	var b strings.Builder
	b.WriteString("📋 Your health data\n")
	if p != nil {
		fmt.Fprintf(&b, "\nName: %s\nAge: %d\nHeight: %.0f cm\nWeight: %.1f kg\nBMI: %.1f (%s)\n",
			p.Name, p.Age, p.HeightCm, p.WeightKg, p.BMI, bmiCategory(p.BMI))
		if p.MedicalHistory != "" && !strings.EqualFold(p.MedicalHistory, "none") {
			fmt.Fprintf(&b, "Medical history: %s\n", p.MedicalHistory)
		}
	}
	if a != nil {
		fmt.Fprintf(&b, "\nLatest health score: %d/100 (%s)\n", a.Score, a.CreatedAt.Format(flow.DateLayout))
	} else {
		b.WriteString("\nNo health assessment on record yet.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
