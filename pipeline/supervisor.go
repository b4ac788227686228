package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/history"
	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// SupervisorStep analyzes the persisted logs offline and reports tuning
// suggestions. It runs outside the per-turn sequence, typically on demand
// or on a schedule.
type SupervisorStep struct {
	recorder *history.Recorder
	logger   *slog.Logger
}

// NewSupervisorStep creates the step over the given log recorder.
func NewSupervisorStep(recorder *history.Recorder) *SupervisorStep {
	return &SupervisorStep{recorder: recorder, logger: logging.WithComponent("pipeline")}
}

// Report returns the joined improvement suggestions, or "No issues" when
// the logs show nothing actionable.
func (s *SupervisorStep) Report() string {
	var suggestions []string
	if s.recorder != nil {
		if n := s.recorder.Intent.CountOccurrences("unclear"); n > 0 {
			suggestions = append(suggestions, fmt.Sprintf("Improve intent detection: %d unclear cases", n))
		}
		if n := s.recorder.Validation.CountOccurrences("invalid"); n > 0 {
			suggestions = append(suggestions, fmt.Sprintf("Refine response verification: %d invalid answers", n))
		}
	}
	report := "No issues"
	if len(suggestions) > 0 {
		report = strings.Join(suggestions, "; ")
	}
	s.logger.Info("supervisor report", "report", report)
	return report
}

// Run writes the report into the state's response, mirroring how the
// per-turn steps communicate their outcome.
func (s *SupervisorStep) Run(st *State) {
	st.Response = s.Report()
}
