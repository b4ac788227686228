package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/prompt"
)

// Translator renders text into a target language.
type Translator struct {
	client  Client
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewTranslator creates a translator backed by the given client.
func NewTranslator(client Client, opts ...Option) *Translator {
	o := newOptions(opts...)
	return &Translator{client: client, prompts: o.prompts, logger: o.logger}
}

// Translate returns the text in the target language. The original text
// comes back unchanged whenever the model call fails or yields nothing,
// so callers never lose content to a broken translation service.
func (t *Translator) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" || target == "" {
		return text, nil
	}
	rendered, err := t.prompts.Render(prompt.TranslateText, map[string]any{
		"Target": target,
		"Text":   text,
	})
	if err != nil {
		t.logger.Warn("failed to render translation prompt", "error", err)
		return text, nil
	}
	raw, err := ask(ctx, t.client, rendered)
	if err != nil {
		t.logger.Warn("translation failed, keeping original text", "target", target, "error", err)
		return text, nil
	}
	out := strings.TrimSpace(raw)
	if out == "" {
		return text, nil
	}
	return out, nil
}
