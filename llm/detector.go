package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/prompt"
)

// Detector identifies the language of user text.
type Detector struct {
	client  Client
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewDetector creates a language detector backed by the given client.
func NewDetector(client Client, opts ...Option) *Detector {
	o := newOptions(opts...)
	return &Detector{client: client, prompts: o.prompts, logger: o.logger}
}

// Detect returns the ISO 639-1 code of the text's language. It fails when
// the model is unreachable or replies with anything but a two-letter code.
func (d *Detector) Detect(ctx context.Context, text string) (string, error) {
	rendered, err := d.prompts.Render(prompt.DetectLanguage, map[string]any{"Input": text})
	if err != nil {
		return "", fmt.Errorf("failed to render language prompt: %w", err)
	}
	raw, err := ask(ctx, d.client, rendered)
	if err != nil {
		return "", fmt.Errorf("failed to detect language: %w", err)
	}
	code := normalizeLanguageCode(raw)
	if code == "" {
		d.logger.Debug("model returned an invalid language code", "raw", strings.TrimSpace(raw))
		return "", fmt.Errorf("invalid language code %q", strings.TrimSpace(raw))
	}
	return code, nil
}

// normalizeLanguageCode keeps only clean two-letter ISO codes.
func normalizeLanguageCode(raw string) string {
	code := strings.ToLower(strings.TrimSpace(raw))
	code = strings.Trim(code, `"'.`)
	if len(code) != 2 {
		return ""
	}
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return ""
		}
	}
	return code
}
