package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/message"
	"github.com/sweetpotato0/convodesk/prompt"
)

// GenerateRequest carries everything the reply generator may use.
type GenerateRequest struct {
	Input    string            // the user message, already pivot-translated if needed
	History  []message.Message // prior turns, oldest first
	Intent   string            // resolved intent, empty when unknown
	Language string            // ISO 639-1 code the reply should be written in
}

// Generator produces free-form assistant replies.
type Generator struct {
	client  Client
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewGenerator creates a reply generator backed by the given client.
func NewGenerator(client Client, opts ...Option) *Generator {
	o := newOptions(opts...)
	return &Generator{client: client, prompts: o.prompts, logger: o.logger}
}

// Generate returns the model's reply for the request. An empty reply is
// returned as-is so callers can fall back.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	intent := req.Intent
	if intent == "" {
		intent = "unknown"
	}
	language := req.Language
	if language == "" {
		language = "en"
	}
	rendered, err := g.prompts.Render(prompt.GenerateReply, map[string]any{
		"Language": language,
		"Intent":   intent,
		"History":  historySection(req.History),
		"Input":    req.Input,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render reply prompt: %w", err)
	}
	raw, err := ask(ctx, g.client, rendered)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// historySection renders prior turns as "role: content" lines. Empty
// history yields an empty string so templates collapse cleanly.
func historySection(history []message.Message) string {
	if len(history) == 0 {
		return ""
	}
	b := prompt.NewBuilder()
	b.AddLine("Conversation so far:")
	for _, msg := range history {
		b.AddLine(fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return b.Build()
}
