package pipeline

import (
	"context"
	"log/slog"

	"github.com/sweetpotato0/convodesk/history"
	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// verificationVotes is how many times the verifier is polled per turn;
// majority voting smooths nondeterministic model output.
const verificationVotes = 3

// Verdict labels recorded in the validation log.
const (
	VerdictValid     = "valid"
	VerdictUncertain = "uncertain"
	VerdictInvalid   = "invalid"
)

// VerificationStep majority-votes an external verifier on the drafted
// response.
type VerificationStep struct {
	verifier Verifier
	log      *history.Log
	logger   *slog.Logger
}

// NewVerificationStep creates the step. A nil log disables verdict
// recording.
func NewVerificationStep(verifier Verifier, validationLog *history.Log) *VerificationStep {
	return &VerificationStep{
		verifier: verifier,
		log:      validationLog,
		logger:   logging.WithComponent("pipeline"),
	}
}

// Run reports whether the response passed. Two or more positive votes pass;
// exactly one is uncertain (failed, no flag); zero is invalid and raises
// the error flag. The flag is only ever raised here, never cleared.
func (s *VerificationStep) Run(ctx context.Context, st *State) bool {
	positive := 0
	for i := 0; i < verificationVotes; i++ {
		ok, err := s.verifier.Verify(ctx, st.Input, st.Response)
		if err != nil {
			s.logger.Warn("verifier vote failed", "error", err)
			continue
		}
		if ok {
			positive++
		}
	}

	var verdict string
	var passed bool
	switch {
	case positive >= 2:
		verdict, passed = VerdictValid, true
	case positive == 1:
		verdict, passed = VerdictUncertain, false
	default:
		verdict, passed = VerdictInvalid, false
		st.ErrorFlag = true
	}

	if s.log != nil {
		if err := s.log.Append(verdict); err != nil {
			s.logger.Warn("failed to record verdict", "error", err)
		}
	}
	s.logger.Debug("verification complete", "verdict", verdict, "positive_votes", positive)
	return passed
}
