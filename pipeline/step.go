package pipeline

import (
	"context"
	"strings"
)

// StepName identifies a plannable pipeline step.
type StepName string

const (
	StepLanguage StepName = "language"
	StepIntent   StepName = "intent"
	StepRetrieve StepName = "retrieve"
	StepRespond  StepName = "respond"
)

// StepNames returns the plannable step names in canonical order.
func StepNames() []StepName {
	return []StepName{StepLanguage, StepIntent, StepRetrieve, StepRespond}
}

// ParseStepName maps free-form planner output onto a known step name.
// Unknown names report false so callers can drop them.
func ParseStepName(raw string) (StepName, bool) {
	switch name := StepName(strings.ToLower(strings.TrimSpace(raw))); name {
	case StepLanguage, StepIntent, StepRetrieve, StepRespond:
		return name, true
	default:
		return "", false
	}
}

// Step is one unit of turn processing selected by the orchestrator.
// Expected failures set State.ErrorFlag instead of returning an error;
// a returned error means the turn itself cannot continue.
type Step interface {
	Name() StepName
	Run(ctx context.Context, st *State) error
}
