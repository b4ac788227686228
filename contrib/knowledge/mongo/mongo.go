// Package mongo provides a MongoDB-backed knowledge store. Documents are
// stored one per topic-tagged record; Search keeps the topic-in-query
// containment semantics of the in-memory store.
package mongo

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetpotato0/convodesk/knowledge"
)

// Config holds MongoDB connection configuration.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// DefaultConfig returns the local-development defaults.
func DefaultConfig() *Config {
	return &Config{
		URI:        "mongodb://localhost:27017",
		Database:   "convodesk",
		Collection: "documents",
	}
}

// ConfigFromEnv loads the configuration from MONGODB_* environment
// variables, falling back to the defaults.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.URI = v
	}
	if v := os.Getenv("MONGODB_DB"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("MONGODB_COLLECTION"); v != "" {
		cfg.Collection = v
	}
	return cfg
}

// mongoDocument is the stored representation of one knowledge document.
type mongoDocument struct {
	ID        string    `bson:"_id"`
	Topic     string    `bson:"topic"`
	Title     string    `bson:"title,omitempty"`
	URL       string    `bson:"url,omitempty"`
	Content   string    `bson:"content"`
	Score     float64   `bson:"score,omitempty"`
	Type      string    `bson:"type,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store implements knowledge.Store and knowledge.Writer on MongoDB.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects to MongoDB and prepares the document collection.
func New(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := s.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "topic", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, models)
	return err
}

// Write implements knowledge.Writer. Documents are inserted under the
// lowercased topic keyword.
func (s *Store) Write(ctx context.Context, topic string, docs ...knowledge.Document) error {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" || len(docs) == 0 {
		return nil
	}

	now := time.Now()
	records := make([]any, 0, len(docs))
	for i, doc := range docs {
		records = append(records, mongoDocument{
			ID:        fmt.Sprintf("doc:%d:%d", now.UnixNano(), i),
			Topic:     topic,
			Title:     doc.Title,
			URL:       doc.URL,
			Content:   doc.Content,
			Score:     doc.Score,
			Type:      doc.Type,
			CreatedAt: now,
		})
	}

	if _, err := s.collection.InsertMany(ctx, records); err != nil {
		return fmt.Errorf("failed to write documents for topic %s: %w", topic, err)
	}
	return nil
}

// Search implements knowledge.Store: it returns the documents of every
// stored topic that appears in the lowercased query, topics in lexical
// order and documents in insertion order within a topic.
func (s *Store) Search(ctx context.Context, query string) ([]knowledge.Document, error) {
	queryL := strings.ToLower(query)
	if strings.TrimSpace(queryL) == "" {
		return nil, nil
	}

	topics, err := s.Topics(ctx)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, topic := range topics {
		if strings.Contains(queryL, topic) {
			matched = append(matched, topic)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}

	filter := bson.M{"topic": bson.M{"$in": matched}}
	opts := options.Find().SetSort(bson.D{{Key: "topic", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer cursor.Close(ctx)

	var records []mongoDocument
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	out := make([]knowledge.Document, len(records))
	for i, rec := range records {
		out[i] = knowledge.Document{
			Title:   rec.Title,
			URL:     rec.URL,
			Content: rec.Content,
			Score:   rec.Score,
			Type:    rec.Type,
		}
	}
	return out, nil
}

// Topics returns the stored topic keywords in lexical order.
func (s *Store) Topics(ctx context.Context) ([]string, error) {
	values, err := s.collection.Distinct(ctx, "topic", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	topics := make([]string, 0, len(values))
	for _, v := range values {
		if topic, ok := v.(string); ok {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics, nil
}

// Count returns the total number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Clear removes every stored document.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

// Ping checks the MongoDB connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Disconnect(ctx)
}
