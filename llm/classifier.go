package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/prompt"
)

// IntentChoice describes one intent the classifier may pick.
type IntentChoice struct {
	Name        string // canonical intent identifier
	Description string // one-line hint shown to the model
}

// DefaultCatalog returns the intents the classifier knows out of the box,
// in priority order.
func DefaultCatalog() []IntentChoice {
	return []IntentChoice{
		{Name: "technical_support_request", Description: "problems, malfunctions or requests for help with a product"},
		{Name: "product_information_request", Description: "questions about features, specifications or compatibility"},
		{Name: "cost_estimation", Description: "requests for quotes, prices or cost information"},
		{Name: "booking_or_schedule", Description: "scheduling appointments, demos, installations or meetings"},
		{Name: "document_request", Description: "requests for manuals, datasheets, certificates or other documents"},
		{Name: "open_ticket", Description: "explicit requests to open a support ticket"},
		{Name: "complaint", Description: "complaints about products or services"},
		{Name: "generic_smalltalk", Description: "greetings, thanks and other small talk"},
	}
}

// Classifier maps user text to one of a fixed catalog of intents.
type Classifier struct {
	client  Client
	catalog []IntentChoice
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewClassifier creates an intent classifier. A nil or empty catalog
// selects DefaultCatalog.
func NewClassifier(client Client, catalog []IntentChoice, opts ...Option) *Classifier {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	o := newOptions(opts...)
	return &Classifier{client: client, catalog: catalog, prompts: o.prompts, logger: o.logger}
}

// Intents returns the catalog's intent names in priority order.
func (c *Classifier) Intents() []string {
	names := make([]string, 0, len(c.catalog))
	for _, choice := range c.catalog {
		names = append(names, choice.Name)
	}
	return names
}

// Classify returns the intent name for the text, or the empty string when
// the model cannot resolve one.
func (c *Classifier) Classify(ctx context.Context, text string) (string, error) {
	b := prompt.NewBuilder()
	for _, choice := range c.catalog {
		b.AddLine(fmt.Sprintf("- %s: %s", choice.Name, choice.Description))
	}
	rendered, err := c.prompts.Render(prompt.ClassifyIntent, map[string]any{
		"Input":   text,
		"Catalog": b.Build(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render intent prompt: %w", err)
	}
	raw, err := ask(ctx, c.client, rendered)
	if err != nil {
		return "", fmt.Errorf("failed to classify intent: %w", err)
	}
	name := normalizeIntent(raw)
	for _, choice := range c.catalog {
		if choice.Name == name {
			return name, nil
		}
	}
	c.logger.Debug("intent not resolved", "raw", strings.TrimSpace(raw))
	return "", nil
}

func normalizeIntent(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	return strings.Trim(name, `"'.,`)
}
