// Package knowledge holds the document model and the stores searched
// by the retrieval step.
package knowledge

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Document is one retrievable unit of the knowledge base.
type Document struct {
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
	Type    string  `json:"type,omitempty"`
}

// FromString wraps opaque text in a Document.
func FromString(text string) Document {
	return Document{Content: text, Score: 0.5, Type: "document"}
}

// Snippet returns the content truncated to max runes, with an ellipsis
// when truncation happened.
func (d Document) Snippet(max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(d.Content)
	if len(runes) <= max {
		return d.Content
	}
	return string(runes[:max]) + "..."
}

// Store is the lookup surface the retrieval step depends on.
type Store interface {
	// Search returns the documents matching the query, best first.
	Search(ctx context.Context, query string) ([]Document, error)
}

// Writer is the storage surface ingestion writes to.
type Writer interface {
	// Write stores documents under a topic.
	Write(ctx context.Context, topic string, docs ...Document) error
}

// TopicStore is an in-memory Store keyed by topic. A document matches a
// query when its topic appears in the lowercased query text.
type TopicStore struct {
	mu     sync.RWMutex // Protects topics map
	topics map[string][]Document
}

// NewTopicStore creates an empty in-memory store.
func NewTopicStore() *TopicStore {
	return &TopicStore{
		topics: make(map[string][]Document),
	}
}

// Add registers documents under a topic keyword.
func (s *TopicStore) Add(topic string, docs ...Document) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" || len(docs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[topic] = append(s.topics[topic], docs...)
}

// Write implements Writer.
func (s *TopicStore) Write(ctx context.Context, topic string, docs ...Document) error {
	s.Add(topic, docs...)
	return nil
}

// Search returns the documents of every topic mentioned in the query.
// Matched topics are visited in lexical order so results are stable.
func (s *TopicStore) Search(ctx context.Context, query string) ([]Document, error) {
	queryL := strings.ToLower(query)
	if strings.TrimSpace(queryL) == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []string
	for topic := range s.topics {
		if strings.Contains(queryL, topic) {
			matched = append(matched, topic)
		}
	}
	sort.Strings(matched)

	var out []Document
	for _, topic := range matched {
		out = append(out, s.topics[topic]...)
	}
	return out, nil
}

// Topics returns the registered topic keywords in lexical order.
func (s *TopicStore) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.topics))
	for topic := range s.topics {
		names = append(names, topic)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of stored documents.
func (s *TopicStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, docs := range s.topics {
		n += len(docs)
	}
	return n
}

// Clear removes all topics and documents.
func (s *TopicStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = make(map[string][]Document)
}
