// Package middleware implements the interceptor chain that wraps turn
// processing: validation, logging, recovery and rate limiting run before
// and after the conversation engine handles the input.
package middleware

import (
	"context"
	"fmt"
)

// Context carries one turn through the middleware chain. Middlewares may
// rewrite Input before the turn runs and inspect Response afterwards.
type Context struct {
	UserID    string
	SessionID string

	// Input is the user utterance, possibly cleaned up by middlewares.
	Input string

	// Response is set by the final handler.
	Response string

	// Metadata passes data between middlewares.
	Metadata map[string]any

	context context.Context
}

// NewContext creates a middleware context for one turn.
func NewContext(ctx context.Context, userID, sessionID, input string) *Context {
	return &Context{
		UserID:    userID,
		SessionID: sessionID,
		Input:     input,
		Metadata:  make(map[string]any),
		context:   ctx,
	}
}

// Context returns the underlying context.Context.
func (c *Context) Context() context.Context {
	if c.context == nil {
		return context.Background()
	}
	return c.context
}

// Middleware intercepts turn processing. Returning an error without
// calling next stops the chain.
type Middleware interface {
	// Name returns the middleware name for logging and debugging.
	Name() string

	// Execute runs the middleware logic and calls next to continue.
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware.
type Handler func(*Context) error

// Chain is a sequence of middlewares executed around a final handler.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a middleware chain.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Add appends a middleware to the chain.
func (c *Chain) Add(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Execute runs the chain and finally the handler.
func (c *Chain) Execute(ctx *Context, finalHandler Handler) error {
	return c.execute(ctx, 0, finalHandler)
}

func (c *Chain) execute(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}
	next := func(ctx *Context) error {
		return c.execute(ctx, index+1, finalHandler)
	}
	return c.middlewares[index].Execute(ctx, next)
}

// LoggerFunc is the logging function signature used by the logging
// middlewares.
type LoggerFunc func(string)

// RequestLogger logs incoming turns before they are processed.
type RequestLogger struct {
	logger LoggerFunc
}

// NewRequestLogger creates a request logging middleware.
func NewRequestLogger(logger LoggerFunc) *RequestLogger {
	return &RequestLogger{logger: logger}
}

// Name returns the middleware name.
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs the turn input.
func (m *RequestLogger) Execute(ctx *Context, next Handler) error {
	if m.logger != nil {
		m.logger(fmt.Sprintf("[RequestLogger] session=%s input: %s", ctx.SessionID, ctx.Input))
	}
	return next(ctx)
}

// ResponseLogger logs the outcome of a turn after it is processed.
type ResponseLogger struct {
	logger LoggerFunc
}

// NewResponseLogger creates a response logging middleware.
func NewResponseLogger(logger LoggerFunc) *ResponseLogger {
	return &ResponseLogger{logger: logger}
}

// Name returns the middleware name.
func (m *ResponseLogger) Name() string {
	return "ResponseLogger"
}

// Execute logs the response, or the error that stopped the turn.
func (m *ResponseLogger) Execute(ctx *Context, next Handler) error {
	err := next(ctx)
	if m.logger != nil {
		if err != nil {
			m.logger(fmt.Sprintf("[ResponseLogger] session=%s error: %v", ctx.SessionID, err))
		} else {
			m.logger(fmt.Sprintf("[ResponseLogger] session=%s output: %s", ctx.SessionID, ctx.Response))
		}
	}
	return err
}
