package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/prompt"
)

// DocClassification is the category judgment for an ingested document.
type DocClassification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// DocClassifier assigns ingested documents to a category.
type DocClassifier struct {
	client  Client
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewDocClassifier creates a document classifier backed by the given client.
func NewDocClassifier(client Client, opts ...Option) *DocClassifier {
	o := newOptions(opts...)
	return &DocClassifier{client: client, prompts: o.prompts, logger: o.logger}
}

// Classify returns the model's category judgment for a document sample.
func (c *DocClassifier) Classify(ctx context.Context, filename, text string, categories []string) (*DocClassification, error) {
	rendered, err := c.prompts.Render(prompt.ClassifyDocument, map[string]any{
		"Categories": strings.Join(categories, ", "),
		"Filename":   filename,
		"Text":       text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render document prompt: %w", err)
	}
	raw, err := ask(ctx, c.client, rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to classify document: %w", err)
	}
	result, err := decodeJSON[DocClassification](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse classification: %w", err)
	}
	result.Category = strings.TrimSpace(strings.ToLower(result.Category))
	return result, nil
}

// Enrichment carries retrieval aids generated for one chunk.
type Enrichment struct {
	Summary   string   `json:"chunk_summary"`
	Questions []string `json:"hypothetical_questions"`
}

// Enricher generates summaries and hypothetical questions for chunks.
type Enricher struct {
	client  Client
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewEnricher creates a chunk enricher backed by the given client.
func NewEnricher(client Client, opts ...Option) *Enricher {
	o := newOptions(opts...)
	return &Enricher{client: client, prompts: o.prompts, logger: o.logger}
}

// Enrich returns a summary and hypothetical questions for the chunk text.
func (e *Enricher) Enrich(ctx context.Context, text string) (*Enrichment, error) {
	rendered, err := e.prompts.Render(prompt.EnrichChunk, map[string]any{"Text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to render enrichment prompt: %w", err)
	}
	raw, err := ask(ctx, e.client, rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to enrich chunk: %w", err)
	}
	result, err := decodeJSON[Enrichment](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse enrichment: %w", err)
	}
	result.Summary = strings.TrimSpace(result.Summary)
	return result, nil
}
