package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/message"
	"github.com/sweetpotato0/convodesk/prompt"
)

// ClarifyRequest carries the turn context used to phrase a follow-up question.
type ClarifyRequest struct {
	Reasoning string            // why the pipeline chose its steps
	Response  string            // draft reply that failed, may be empty
	History   []message.Message // recent turns, oldest first
}

// Clarifier produces follow-up questions for ambiguous turns.
type Clarifier struct {
	client  Client
	intents []string
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewClarifier creates a clarifier backed by the given client. A nil or
// empty intents list selects the default catalog's names.
func NewClarifier(client Client, intents []string, opts ...Option) *Clarifier {
	if len(intents) == 0 {
		for _, choice := range DefaultCatalog() {
			intents = append(intents, choice.Name)
		}
	}
	o := newOptions(opts...)
	return &Clarifier{client: client, intents: intents, prompts: o.prompts, logger: o.logger}
}

// ContextualQuestion asks the model for a follow-up question grounded in
// the turn's reasoning trace, draft reply and recent history.
func (c *Clarifier) ContextualQuestion(ctx context.Context, req ClarifyRequest) (string, error) {
	rendered, err := c.prompts.Render(prompt.ClarifyContext, map[string]any{
		"Reasoning": req.Reasoning,
		"Response":  req.Response,
		"History":   historySection(req.History),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render clarification prompt: %w", err)
	}
	raw, err := ask(ctx, c.client, rendered)
	if err != nil {
		return "", fmt.Errorf("failed to clarify from context: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// SimpleQuestion asks for a follow-up question from the raw input alone.
func (c *Clarifier) SimpleQuestion(ctx context.Context, input, language string) (string, error) {
	rendered, err := c.prompts.Render(prompt.ClarifySimple, map[string]any{
		"Language": language,
		"Intents":  strings.Join(c.intents, ", "),
		"Input":    input,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render clarification prompt: %w", err)
	}
	raw, err := ask(ctx, c.client, rendered)
	if err != nil {
		return "", fmt.Errorf("failed to clarify from input: %w", err)
	}
	return strings.TrimSpace(raw), nil
}
