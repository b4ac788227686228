// Package llm wraps a text-completion client with the focused
// collaborators the conversation pipeline depends on: language
// detection, intent classification, reply generation, translation,
// verification, clarification and step planning.
package llm

import (
	"context"
	"log/slog"

	"github.com/sweetpotato0/convodesk/message"
	"github.com/sweetpotato0/convodesk/pkg/logging"
	"github.com/sweetpotato0/convodesk/prompt"
)

// Client is the minimal completion surface shared by all collaborators.
type Client interface {
	// Complete sends the messages to the model and returns its reply text.
	Complete(ctx context.Context, msgs []message.Message) (string, error)
}

// ClientFunc adapts a plain function to the Client interface.
type ClientFunc func(ctx context.Context, msgs []message.Message) (string, error)

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, msgs []message.Message) (string, error) {
	return f(ctx, msgs)
}

type options struct {
	prompts *prompt.Manager
	logger  *slog.Logger
}

// Option customizes a collaborator.
type Option func(*options)

// WithPrompts replaces the built-in prompt templates.
func WithPrompts(m *prompt.Manager) Option {
	return func(o *options) {
		if m != nil {
			o.prompts = m
		}
	}
}

// WithLogger sets the logger used by the collaborator.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts ...Option) options {
	o := options{
		prompts: prompt.Defaults(),
		logger:  logging.WithComponent("llm"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func ask(ctx context.Context, client Client, rendered string) (string, error) {
	return client.Complete(ctx, []message.Message{message.New(message.RoleUser, rendered)})
}
