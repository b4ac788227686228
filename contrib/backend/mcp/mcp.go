// Package mcp persists action records through tools exposed by a Model
// Context Protocol server, so ticket and appointment side effects can be
// delegated to an external system instead of a local file or database.
//
// The server is expected to expose three tools: save_record, get_record
// and list_records. Each takes a "collection" argument; save_record also
// takes the record as a JSON string and the read tools return record JSON
// in their text content.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/convodesk/backend"
	errorskg "github.com/sweetpotato0/convodesk/errors"
)

// ErrClientClosed is returned when the MCP client has been closed.
var ErrClientClosed = errors.New("mcp client closed")

// ToolError is returned when the MCP server reports an error response.
type ToolError struct {
	Name    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("mcp tool %s: %s", e.Name, e.Message)
}

// Option configures optional MCP client behaviour.
type Option func(*clientConfig)

type clientConfig struct {
	implementation sdkmcp.Implementation
	logger         *log.Logger
	args           []string
	env            []string
	keepAlive      time.Duration
}

// WithLogger configures logging for the MCP client. If nil, logging is
// discarded.
func WithLogger(logger *log.Logger) Option {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithCommandArgs configures additional arguments when launching a stdio
// MCP server.
func WithCommandArgs(args ...string) Option {
	return func(cfg *clientConfig) {
		cfg.args = append(cfg.args, args...)
	}
}

// WithCommandEnv appends environment variables when launching a stdio MCP
// server.
func WithCommandEnv(env ...string) Option {
	return func(cfg *clientConfig) {
		cfg.env = append(cfg.env, env...)
	}
}

// WithKeepAlive configures periodic ping requests to keep the session
// healthy.
func WithKeepAlive(interval time.Duration) Option {
	return func(cfg *clientConfig) {
		cfg.keepAlive = interval
	}
}

// Caller invokes a named tool on a backend system and returns its textual
// response. Client satisfies it; tests substitute stubs.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Client wraps the official MCP Go SDK client and session.
type Client struct {
	sdkClient *sdkmcp.Client
	session   *sdkmcp.ClientSession
}

// NewStdioClient launches an MCP server command over the stdio transport
// and performs the initialization handshake.
func NewStdioClient(ctx context.Context, command string, opts ...Option) (*Client, error) {
	if command == "" {
		return nil, errors.New("mcp: command cannot be empty")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	cmd := exec.Command(command, cfg.args...)
	if len(cfg.env) > 0 {
		cmd.Env = append(os.Environ(), cfg.env...)
	}
	cmd.Stderr = logWriter{logger: cfg.logger}

	client := &Client{}
	client.sdkClient = sdkmcp.NewClient(&cfg.implementation, &sdkmcp.ClientOptions{
		KeepAlive: cfg.keepAlive,
	})

	session, err := client.sdkClient.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect failed: %w", err)
	}
	client.session = session
	return client, nil
}

// NewStreamableClient connects to an MCP server over the streamable HTTP
// transport.
func NewStreamableClient(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("mcp: endpoint cannot be empty")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	client := &Client{}
	client.sdkClient = sdkmcp.NewClient(&cfg.implementation, &sdkmcp.ClientOptions{
		KeepAlive: cfg.keepAlive,
	})

	session, err := client.sdkClient.Connect(ctx, &sdkmcp.StreamableClientTransport{Endpoint: endpoint}, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect failed: %w", err)
	}
	client.session = session
	return client, nil
}

// CallTool invokes a remote MCP tool and returns the textual response.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if c.session == nil {
		return "", ErrClientClosed
	}

	result, err := c.session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", err
	}

	message := normalizeContent(result.Content)
	if result.IsError {
		if message == "" {
			message = "tool returned error without message"
		}
		return "", &ToolError{Name: name, Message: message}
	}
	return message, nil
}

// Close terminates the MCP client and underlying transport.
func (c *Client) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func defaultConfig() clientConfig {
	return clientConfig{
		implementation: sdkmcp.Implementation{
			Name:    "convodesk",
			Version: "0.1.0",
		},
		logger: log.New(io.Discard, "", 0),
	}
}

type logWriter struct {
	logger *log.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	if w.logger != nil {
		if msg := strings.TrimSpace(string(p)); msg != "" {
			w.logger.Printf("mcp server stderr: %s", msg)
		}
	}
	return len(p), nil
}

func normalizeContent(content []sdkmcp.Content) string {
	if len(content) == 0 {
		return ""
	}
	parts := make([]string, 0, len(content))
	for _, c := range content {
		switch v := c.(type) {
		case *sdkmcp.TextContent:
			parts = append(parts, v.Text)
		default:
			if data, err := c.MarshalJSON(); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Tool names the store expects on the server.
const (
	saveTool = "save_record"
	getTool  = "get_record"
	listTool = "list_records"
)

// Store implements backend.Store over MCP tool calls.
type Store struct {
	caller Caller
}

// NewStore creates a store that persists through the caller's tools.
func NewStore(caller Caller) *Store {
	return &Store{caller: caller}
}

// Save inserts or replaces a record in the kind's collection.
func (s *Store) Save(ctx context.Context, kind backend.Kind, rec backend.Record) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown record kind %q: %w", kind, errorskg.ErrInvalidInput)
	}
	if rec.ID == "" {
		return fmt.Errorf("record id cannot be empty: %w", errorskg.ErrInvalidInput)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}

	if _, err := s.caller.CallTool(ctx, saveTool, map[string]any{
		"collection": kind.Collection(),
		"record":     string(raw),
	}); err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.ID, err)
	}
	return nil
}

// Load returns one record by ID.
func (s *Store) Load(ctx context.Context, kind backend.Kind, id string) (backend.Record, error) {
	reply, err := s.caller.CallTool(ctx, getTool, map[string]any{
		"collection": kind.Collection(),
		"id":         id,
	})
	if err != nil {
		return backend.Record{}, fmt.Errorf("failed to load record %s: %w", id, err)
	}
	if strings.TrimSpace(reply) == "" {
		return backend.Record{}, fmt.Errorf("record %s: %w", id, errorskg.ErrNotFound)
	}

	var rec backend.Record
	if err := json.Unmarshal([]byte(reply), &rec); err != nil {
		return backend.Record{}, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return rec, nil
}

// List returns every record of a kind in the order the server reports.
func (s *Store) List(ctx context.Context, kind backend.Kind) ([]backend.Record, error) {
	reply, err := s.caller.CallTool(ctx, listTool, map[string]any{
		"collection": kind.Collection(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, nil
	}

	var records []backend.Record
	if err := json.Unmarshal([]byte(reply), &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s records: %w", kind, err)
	}
	return records, nil
}
