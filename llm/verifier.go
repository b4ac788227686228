package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/prompt"
)

// Verifier judges whether a drafted reply actually answers the user.
type Verifier struct {
	client  Client
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewVerifier creates a reply verifier backed by the given client.
func NewVerifier(client Client, opts ...Option) *Verifier {
	o := newOptions(opts...)
	return &Verifier{client: client, prompts: o.prompts, logger: o.logger}
}

// Verify reports whether the model judges the response relevant and
// helpful for the input. Any reply containing TRUE counts as a yes.
func (v *Verifier) Verify(ctx context.Context, input, response string) (bool, error) {
	rendered, err := v.prompts.Render(prompt.VerifyReply, map[string]any{
		"Response": response,
		"Input":    input,
	})
	if err != nil {
		return false, fmt.Errorf("failed to render verification prompt: %w", err)
	}
	raw, err := ask(ctx, v.client, rendered)
	if err != nil {
		return false, fmt.Errorf("failed to verify reply: %w", err)
	}
	return strings.Contains(strings.ToUpper(raw), "TRUE"), nil
}
