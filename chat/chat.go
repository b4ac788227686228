// Package chat is the boundary service in front of the pipeline: it owns
// sessions, runs the middleware chain around each turn and guarantees the
// caller always gets a reply, never a raw pipeline failure.
package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sweetpotato0/convodesk/backend"
	"github.com/sweetpotato0/convodesk/knowledge"
	"github.com/sweetpotato0/convodesk/middleware"
	"github.com/sweetpotato0/convodesk/pipeline"
	"github.com/sweetpotato0/convodesk/pkg/logging"
	"github.com/sweetpotato0/convodesk/pkg/telemetry"
	"github.com/sweetpotato0/convodesk/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// apologyReply is returned when the pipeline fails outright. The user
	// never sees a raw error.
	apologyReply = "Mi dispiace, si è verificato un errore interno. Ti preghiamo di riprovare."
	// emptyReply covers the defensive case of a turn that completed
	// without producing any response text.
	emptyReply = "Mi dispiace, non sono riuscito a elaborare la tua richiesta."

	snippetLength = 200
)

// Request is one user turn entering the service. Empty IDs are generated.
type Request struct {
	UserID    string
	SessionID string
	Input     string
}

// Source describes where a reply's content came from.
type Source struct {
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	Snippet    string  `json:"snippet,omitempty"`
	Confidence float64 `json:"confidence"`
	Type       string  `json:"type"`
}

// Reply is the outcome of one processed turn.
type Reply struct {
	SessionID         string        `json:"session_id"`
	UserID            string        `json:"user_id"`
	Response          string        `json:"response"`
	Intent            string        `json:"intent,omitempty"`
	Language          string        `json:"language"`
	Confidence        float64       `json:"confidence"`
	SourceReliability float64       `json:"source_reliability"`
	Sources           []Source      `json:"sources"`
	ErrorFlag         bool          `json:"error_flag"`
	ReasoningTrace    string        `json:"reasoning_trace,omitempty"`
	Duration          time.Duration `json:"-"`
}

// Service runs turns through the pipeline with session persistence and a
// middleware chain around each turn.
type Service struct {
	orch     *pipeline.Orchestrator
	sessions *session.Manager
	chain    *middleware.Chain
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithMiddleware replaces the default middleware chain.
func WithMiddleware(chain *middleware.Chain) Option {
	return func(s *Service) {
		if chain != nil {
			s.chain = chain
		}
	}
}

// WithLogger overrides the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the orchestrator and session manager into a boundary
// service. The default middleware chain recovers panics and validates the
// request shape.
func NewService(orch *pipeline.Orchestrator, sessions *session.Manager, opts ...Option) (*Service, error) {
	if orch == nil {
		return nil, fmt.Errorf("chat: orchestrator cannot be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("chat: session manager cannot be nil")
	}
	s := &Service{
		orch:     orch,
		sessions: sessions,
		logger:   logging.WithComponent("chat"),
		tracer:   telemetry.Tracer("chat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chain == nil {
		s.chain = middleware.NewChain(
			middleware.NewRecovery(),
			middleware.NewInputValidator(0),
		)
	}
	return s, nil
}

// Process runs one turn end to end. Request-shape problems (empty input,
// malformed IDs, exhausted turn budget) come back as errors for the caller
// to map; every other failure becomes the apology reply, so a well-formed
// request always yields a usable Reply.
func (s *Service) Process(ctx context.Context, req Request) (*Reply, error) {
	if req.SessionID == "" {
		req.SessionID = NewSessionID()
	}
	if req.UserID == "" {
		req.UserID = NewUserID()
	}

	ctx, span := s.tracer.Start(ctx, "chat.process",
		trace.WithAttributes(
			attribute.String("session.id", req.SessionID),
			attribute.String("user.id", req.UserID),
		),
	)

	start := time.Now()
	mctx := middleware.NewContext(ctx, req.UserID, req.SessionID, req.Input)

	var reply *Reply
	err := s.chain.Execute(mctx, func(c *middleware.Context) error {
		r, err := s.runTurn(c.Context(), req.UserID, req.SessionID, c.Input)
		if err != nil {
			return err
		}
		reply = r
		c.Response = r.Response
		return nil
	})

	duration := time.Since(start)
	telemetry.End(span, err)

	if err != nil {
		if isCallerError(err) {
			s.logger.Warn("request rejected", "session_id", req.SessionID, "error", err)
			return nil, err
		}
		s.logger.Error("turn failed, sending apology",
			"session_id", req.SessionID, "duration_ms", duration.Milliseconds(), "error", err)
		return s.apology(req, err, duration), nil
	}
	if reply == nil {
		return s.apology(req, errors.New("middleware chain produced no reply"), duration), nil
	}

	reply.Duration = duration
	s.logger.Info("turn processed",
		"session_id", req.SessionID,
		"intent", reply.Intent,
		"confidence", reply.Confidence,
		"sources", len(reply.Sources),
		"error_flag", reply.ErrorFlag,
		"duration_ms", duration.Milliseconds(),
	)
	return reply, nil
}

// runTurn attaches session history, runs the pipeline and persists the
// updated conversation.
func (s *Service) runTurn(ctx context.Context, userID, sessionID, input string) (*Reply, error) {
	sess, err := s.sessions.GetOrCreate(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("attach session: %w", err)
	}

	st := s.orch.NewTurn(userID, sessionID, input)
	st.AttachHistory(sess.History())
	if lang := sess.Language(); lang != "" {
		st.Language = lang
	}

	if err := s.orch.Run(ctx, st); err != nil {
		return nil, fmt.Errorf("run turn: %w", err)
	}

	sess.RecordTurn(st.ConversationHistory, st.Language)
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Warn("session save failed", "session_id", sessionID, "error", err)
	}

	response := st.Response
	if strings.TrimSpace(response) == "" {
		response = emptyReply
	}

	return &Reply{
		SessionID:         sessionID,
		UserID:            userID,
		Response:          response,
		Intent:            st.Intent,
		Language:          st.Language,
		Confidence:        st.Confidence,
		SourceReliability: st.SourceReliability,
		Sources:           extractSources(st.Documents, st.ActionResults),
		ErrorFlag:         st.ErrorFlag,
		ReasoningTrace:    st.ReasoningTrace,
	}, nil
}

// ClearSession closes and removes one session.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Status reports service health for liveness endpoints.
func (s *Service) Status(ctx context.Context) map[string]any {
	status := map[string]any{
		"status":     "healthy",
		"last_check": time.Now().UTC().Format(time.RFC3339),
	}
	if count, err := s.sessions.Count(ctx); err == nil {
		status["sessions"] = count
	} else {
		status["status"] = "degraded"
		status["error"] = err.Error()
	}
	return status
}

// apology builds the degraded reply returned when the pipeline fails.
func (s *Service) apology(req Request, err error, duration time.Duration) *Reply {
	return &Reply{
		SessionID:         req.SessionID,
		UserID:            req.UserID,
		Response:          apologyReply,
		Language:          "it",
		Confidence:        0.0,
		SourceReliability: 0.0,
		Sources:           []Source{},
		ErrorFlag:         true,
		ReasoningTrace:    fmt.Sprintf("pipeline error: %v", err),
		Duration:          duration,
	}
}

// extractSources converts retrieved documents and successful persisted
// actions into user-visible source references.
func extractSources(docs []knowledge.Document, actions []backend.ActionResult) []Source {
	sources := make([]Source, 0, len(docs)+len(actions))
	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = "Document"
		}
		docType := doc.Type
		if docType == "" {
			docType = "document"
		}
		sources = append(sources, Source{
			Title:      title,
			URL:        doc.URL,
			Snippet:    doc.Snippet(snippetLength),
			Confidence: doc.Score,
			Type:       docType,
		})
	}
	for _, res := range actions {
		if !res.Success || res.ID == "" {
			continue
		}
		sources = append(sources, Source{
			Title:      res.ID,
			Snippet:    res.Message,
			Confidence: 0.5,
			Type:       "action",
		})
	}
	return sources
}

// isCallerError reports whether the error describes a malformed or
// over-budget request rather than a pipeline failure.
func isCallerError(err error) bool {
	return errors.Is(err, middleware.ErrEmptyInput) ||
		errors.Is(err, middleware.ErrInvalidSessionID) ||
		errors.Is(err, middleware.ErrInvalidUserID) ||
		errors.Is(err, middleware.ErrRateLimitExceeded)
}

// NewSessionID generates a session identifier.
func NewSessionID() string {
	return "session_" + randomHex(4)
}

// NewUserID generates a user identifier.
func NewUserID() string {
	return "user_" + randomHex(4)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(buf)
}
