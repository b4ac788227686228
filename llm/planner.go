package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/prompt"
)

// Plan is the step sequence proposed by the reasoning model.
type Plan struct {
	Reasoning string   `json:"reasoning"`
	Sequence  []string `json:"sequence"`
}

// Planner asks a reasoning model to order pipeline steps for an input.
type Planner struct {
	client  Client
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewPlanner creates a step planner backed by the given client.
func NewPlanner(client Client, opts ...Option) *Planner {
	o := newOptions(opts...)
	return &Planner{client: client, prompts: o.prompts, logger: o.logger}
}

// Plan returns the model's proposed step sequence for the input. Malformed
// JSON and empty sequences are errors so callers can fall back.
func (p *Planner) Plan(ctx context.Context, input string, available []string) (*Plan, error) {
	rendered, err := p.prompts.Render(prompt.PlanSteps, map[string]any{
		"Steps": strings.Join(available, ", "),
		"Input": input,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render planning prompt: %w", err)
	}
	raw, err := ask(ctx, p.client, rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to plan steps: %w", err)
	}
	plan, err := decodeJSON[Plan](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if len(plan.Sequence) == 0 {
		return nil, fmt.Errorf("planner returned no steps")
	}
	p.logger.Debug("planned step sequence", "sequence", plan.Sequence)
	return plan, nil
}
