package router

import (
	"log/slog"
	"strings"

	"github.com/carebridge/healthmate/internal/flow"
	"github.com/carebridge/healthmate/internal/models"
)

// CommandMarker prefixes every command.
const CommandMarker = "/"

// parseCommand splits "/name arg..." into a lowercase name and its raw
// argument text.
func parseCommand(input string) (name, arg string) {
	rest := strings.TrimPrefix(input, CommandMarker)
	parts := strings.SplitN(rest, " ", 2)
	name = strings.ToLower(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return name, arg
}

// routeCommand dispatches a command. Commands that enter a flow discard any
// flow already in progress; the rest leave the session flow untouched so an
// interrupted flow resumes on the next plain message. Unknown commands get
// the help text.
func (r *Router) routeCommand(s *models.Session, profile *models.Profile, input string) []Action {
	name, arg := parseCommand(input)
	slog.Debug("Command received", "identity", s.Identity, "command", name)

	switch name {
	case "start":
		if profile == nil {
			s.EnterFlow(models.FlowConsent, "")
			return []Action{Reply{msgTermsAndConsent}}
		}
		s.ClearFlow()
		return []Action{Reply{greeting(profile.Name)}}

	case "diagnose":
		if arg == "" {
			return []Action{Reply{msgDiagnoseUsage}}
		}
		return []Action{Diagnose{Symptoms: arg}}

	case "fit":
		first := flow.Fitness.First()
		s.EnterFlow(models.FlowFitness, first.Name)
		return []Action{Reply{first.Prompt}}

	case "meals":
		first := flow.Meals.First()
		s.EnterFlow(models.FlowMeals, first.Name)
		return []Action{Reply{first.Prompt}}

	case "cycle":
		if profile == nil || profile.Sex != models.SexFemale {
			return []Action{Reply{msgCycleRestricted}}
		}
		first := flow.Cycle.First()
		s.EnterFlow(models.FlowCycle, first.Name)
		return []Action{Reply{first.Prompt}}

	case "data":
		return []Action{HealthAnalysis{}}

	case "periodtips":
		return []Action{PeriodTips{}}

	case "help":
		return []Action{Reply{msgHelp}}

	default:
		return []Action{Reply{msgHelp}}
	}
}
