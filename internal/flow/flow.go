// Package flow declares the multi-step dialogue flows and the generic step
// handler that advances a session through them.
//
// Flow definitions are static: they are built at process start and never
// mutated. Validators are pure functions; the same input always yields the
// same verdict.
package flow

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/carebridge/healthmate/internal/models"
)

// Validator classifies raw input as accepted (returning the normalized
// value) or rejected (returning an error whose message is the correction
// prompt shown to the user).
type Validator func(raw string) (string, error)

// Step is one question/validation unit within a flow.
type Step struct {
	Name     models.StepName
	Key      models.DataKey // where the validated value is stored
	Prompt   string         // question asked when this step becomes current
	Validate Validator
}

// Definition is an ordered list of steps for one flow.
type Definition struct {
	Type  models.FlowType
	Steps []Step
}

// First returns the initial step of the flow.
func (d *Definition) First() Step {
	return d.Steps[0]
}

// find returns the index of the named step, or -1.
func (d *Definition) find(name models.StepName) int {
	for i, s := range d.Steps {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Outcome classifies the result of applying input to a flow step.
type Outcome int

const (
	// OutcomeRejected means the validator rejected the input; the session
	// is unchanged and the same step is re-asked.
	OutcomeRejected Outcome = iota
	// OutcomeAdvanced means the value was accepted and the session moved to
	// the next step.
	OutcomeAdvanced
	// OutcomeCompleted means the final step was accepted; the caller must
	// run the flow's completion action.
	OutcomeCompleted
)

// StepResult is the outcome of one Advance call.
type StepResult struct {
	Outcome Outcome
	Reply   string                    // correction prompt or next-step prompt
	Data    map[models.DataKey]string // accumulated data, set on completion
}

// Advance applies raw input to the session's current step. On rejection the
// session is not mutated; on acceptance the value is merged and the step
// advances (or the flow completes). A session step that does not exist in
// the definition is a programmer invariant violation and returns an error.
func Advance(def *Definition, sess *models.Session, raw string) (StepResult, error) {
	idx := def.find(sess.Step)
	if idx < 0 {
		return StepResult{}, fmt.Errorf("flow %s has no step %q", def.Type, sess.Step)
	}
	step := def.Steps[idx]

	value, err := step.Validate(strings.TrimSpace(raw))
	if err != nil {
		// Validation rejections are expected user behavior, not errors.
		slog.Debug("Step input rejected", "flow", def.Type, "step", step.Name, "reason", err)
		return StepResult{Outcome: OutcomeRejected, Reply: err.Error()}, nil
	}

	if sess.Data == nil {
		sess.Data = make(map[models.DataKey]string)
	}
	sess.Data[step.Key] = value

	if idx == len(def.Steps)-1 {
		slog.Info("Flow completed", "flow", def.Type, "identity", sess.Identity)
		return StepResult{Outcome: OutcomeCompleted, Data: sess.Data}, nil
	}

	next := def.Steps[idx+1]
	sess.Step = next.Name
	slog.Debug("Step advanced", "flow", def.Type, "from", step.Name, "to", next.Name)
	return StepResult{Outcome: OutcomeAdvanced, Reply: next.Prompt}, nil
}

var definitions = map[models.FlowType]*Definition{}

func register(d *Definition) {
	definitions[d.Type] = d
}

// Get retrieves the definition for a flow type.
func Get(ft models.FlowType) (*Definition, bool) {
	d, ok := definitions[ft]
	return d, ok
}
