package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/llm"
	"github.com/sweetpotato0/convodesk/message"
	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// conservativeReply is used when the generator cannot produce an answer.
const conservativeReply = "I don't have enough verified information to answer that reliably. Could you rephrase or add more detail?"

// actionIntents trigger a backend action instead of a generated reply.
var actionIntents = map[string]bool{
	"booking_or_schedule":         true,
	"open_ticket":                 true,
	"complaint":                   true,
	"document_request":            true,
	"product_information_request": true,
	"cost_estimation":             true,
}

// ResponseStep drafts the reply in one of three mutually exclusive modes:
// document-backed, action-backed or generative.
type ResponseStep struct {
	generator Generator
	action    *ActionStep
	logger    *slog.Logger
}

// NewResponseStep creates the step. A nil generator forces the
// conservative fallback in generative mode; a nil action step skips the
// backend side effect but still reports the action mode reply.
func NewResponseStep(generator Generator, action *ActionStep) *ResponseStep {
	return &ResponseStep{
		generator: generator,
		action:    action,
		logger:    logging.WithComponent("pipeline"),
	}
}

// Name implements Step.
func (s *ResponseStep) Name() StepName { return StepRespond }

// Run drafts the response. Document mode wins when documents exist, then
// action mode for the action-triggering intents, then the generator.
func (s *ResponseStep) Run(ctx context.Context, st *State) error {
	style := st.Formality
	if style == "" {
		style = FormalityNeutral
	}

	switch {
	case len(st.Documents) > 0:
		st.Response = fmt.Sprintf("[%s] %s", style, st.Documents[0].Content)
		st.SourceReliability = 0.9

	case actionIntents[st.Intent]:
		if s.action != nil {
			if err := s.action.Run(ctx, st); err != nil {
				return err
			}
		}
		reply := fmt.Sprintf("Action taken for intent %q.", st.Intent)
		if n := len(st.ActionResults); n > 0 && st.ActionResults[n-1].Message != "" {
			reply = fmt.Sprintf("Action taken for intent %q: %s", st.Intent, st.ActionResults[n-1].Message)
		}
		st.Response = reply
		if !st.ErrorFlag {
			st.SourceReliability = 0.8
		}

	default:
		st.Response, st.SourceReliability = s.generate(ctx, st)
	}
	return nil
}

// generate asks the model for a reply, with recent history for continuity.
// Failures and empty replies degrade to a conservative low-trust answer.
func (s *ResponseStep) generate(ctx context.Context, st *State) (string, float64) {
	if s.generator == nil {
		return conservativeReply, 0.1
	}
	reply, err := s.generator.Generate(ctx, llm.GenerateRequest{
		Input:    st.Input,
		History:  message.Tail(st.ConversationHistory, 6),
		Intent:   st.Intent,
		Language: st.Language,
	})
	if err != nil {
		s.logger.Warn("reply generation failed", "error", err)
		return conservativeReply, 0.1
	}
	if strings.TrimSpace(reply) == "" {
		return conservativeReply, 0.1
	}
	return reply, 0.5
}
