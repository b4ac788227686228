package pipeline

import (
	"context"

	"github.com/sweetpotato0/convodesk/llm"
)

// The pipeline consumes its external services through small interfaces so
// tests and alternative backends can stand in for the model-backed
// implementations in the llm package.

// Detector identifies the language of user text.
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// Classifier resolves user text to an intent name; empty means unresolved.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Generator drafts a free-form assistant reply.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (string, error)
}

// Translator renders text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Verifier judges whether a response answers the input.
type Verifier interface {
	Verify(ctx context.Context, input, response string) (bool, error)
}

// Clarifier phrases follow-up questions for ambiguous turns.
type Clarifier interface {
	ContextualQuestion(ctx context.Context, req llm.ClarifyRequest) (string, error)
	SimpleQuestion(ctx context.Context, input, language string) (string, error)
}

// Planner proposes the step sequence for a turn.
type Planner interface {
	Plan(ctx context.Context, input string, available []string) (*llm.Plan, error)
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}
