package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/sweetpotato0/convodesk/backend"
	"github.com/sweetpotato0/convodesk/knowledge"
	"github.com/sweetpotato0/convodesk/llm"
)

type stubDetector struct {
	language string
	err      error
	calls    int
}

func (s *stubDetector) Detect(ctx context.Context, text string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.language, nil
}

type stubClassifier struct {
	intent string
	err    error
	inputs []string
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (string, error) {
	s.inputs = append(s.inputs, text)
	if s.err != nil {
		return "", s.err
	}
	return s.intent, nil
}

type stubGenerator struct {
	reply string
	err   error
	reqs  []llm.GenerateRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

// stubTranslator echoes the text back, optionally tagged with a prefix so
// tests can tell translated text from the original.
type stubTranslator struct {
	prefix string
	err    error
	calls  []string
}

func (s *stubTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	s.calls = append(s.calls, target+"|"+text)
	if s.err != nil {
		return "", s.err
	}
	return s.prefix + text, nil
}

// stubVerifier plays back a scripted series of votes, repeating the last
// vote once the script runs out.
type stubVerifier struct {
	votes []bool
	err   error
	calls int
}

func (s *stubVerifier) Verify(ctx context.Context, input, response string) (bool, error) {
	i := s.calls
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	if len(s.votes) == 0 {
		return false, nil
	}
	if i >= len(s.votes) {
		i = len(s.votes) - 1
	}
	return s.votes[i], nil
}

type stubClarifier struct {
	contextual    string
	contextualErr error
	simple        string
	simpleErr     error

	contextualCalls int
	simpleCalls     int
}

func (s *stubClarifier) ContextualQuestion(ctx context.Context, req llm.ClarifyRequest) (string, error) {
	s.contextualCalls++
	return s.contextual, s.contextualErr
}

func (s *stubClarifier) SimpleQuestion(ctx context.Context, input, language string) (string, error) {
	s.simpleCalls++
	return s.simple, s.simpleErr
}

type stubPlanner struct {
	plan  *llm.Plan
	err   error
	calls int
}

func (s *stubPlanner) Plan(ctx context.Context, input string, available []string) (*llm.Plan, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.plan, nil
}

type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

// failingKnowledge is a knowledge.Store whose searches always fail.
type failingKnowledge struct{}

func (failingKnowledge) Search(ctx context.Context, query string) ([]knowledge.Document, error) {
	return nil, errors.New("index unavailable")
}

// memoryBackend keeps action records in memory; saveErr makes Save fail and
// savePanic makes it panic.
type memoryBackend struct {
	mu        sync.Mutex
	records   map[string]backend.Record
	saveErr   error
	savePanic bool
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{records: make(map[string]backend.Record)}
}

func (m *memoryBackend) Save(ctx context.Context, kind backend.Kind, rec backend.Record) error {
	if m.savePanic {
		panic("backend exploded")
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *memoryBackend) Load(ctx context.Context, kind backend.Kind, id string) (backend.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return backend.Record{}, errors.New("not found")
	}
	return rec, nil
}

func (m *memoryBackend) List(ctx context.Context, kind backend.Kind) ([]backend.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]backend.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}
