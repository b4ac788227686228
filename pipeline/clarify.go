package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/history"
	"github.com/sweetpotato0/convodesk/llm"
	"github.com/sweetpotato0/convodesk/message"
	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// defaultClarification is the question of last resort.
const defaultClarification = "Could you clarify your request?"

// formalSalutation prefixes clarification questions for formal users.
const formalSalutation = "Gentile utente, "

// clarifyHistoryWindow bounds how much history the context-aware
// generator sees.
const clarifyHistoryWindow = 3

// ClarificationStep replaces the response with a follow-up question when
// the turn could not be resolved. It never blocks the user: each strategy
// in its chain falls through to the next, ending at a fixed default.
type ClarificationStep struct {
	clarifier Clarifier
	log       *history.Log
	logger    *slog.Logger
}

// NewClarificationStep creates the step. A nil clarifier skips straight to
// the historical log; a nil log disables recall and recording.
func NewClarificationStep(clarifier Clarifier, clarificationLog *history.Log) *ClarificationStep {
	return &ClarificationStep{
		clarifier: clarifier,
		log:       clarificationLog,
		logger:    logging.WithComponent("pipeline"),
	}
}

// Run overwrites the response with a clarification question and marks the
// attempt. ClarificationAttempted stays true for the rest of the turn.
func (s *ClarificationStep) Run(ctx context.Context, st *State) {
	question := s.question(ctx, st)
	if st.Formality == FormalityFormal {
		question = formalSalutation + question
	}
	st.Response = question
	st.ClarificationAttempted = true
	if s.log != nil {
		if err := s.log.Append(question); err != nil {
			s.logger.Warn("failed to record clarification", "error", err)
		}
	}
}

// question walks the strategy chain: context-aware generator, simple
// generator, most frequent historical question, fixed default.
func (s *ClarificationStep) question(ctx context.Context, st *State) string {
	if s.clarifier != nil {
		q, err := s.clarifier.ContextualQuestion(ctx, llm.ClarifyRequest{
			Reasoning: st.ReasoningTrace,
			Response:  st.Response,
			History:   message.Tail(st.ConversationHistory, clarifyHistoryWindow),
		})
		if err != nil {
			s.logger.Debug("contextual clarification failed", "error", err)
		} else if q = strings.TrimSpace(q); q != "" {
			return q
		}

		q, err = s.clarifier.SimpleQuestion(ctx, st.Input, st.Language)
		if err != nil {
			s.logger.Debug("simple clarification failed", "error", err)
		} else if q = strings.TrimSpace(q); q != "" {
			return q
		}
	}
	if s.log != nil {
		if q, ok := s.log.MostFrequent(nil); ok && q != "" {
			return q
		}
	}
	return defaultClarification
}
