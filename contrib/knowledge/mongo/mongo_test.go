package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/sweetpotato0/convodesk/knowledge"
)

// TestMongoStore exercises the store against a real MongoDB server. Set
// MONGODB_URI to run it; without a server the test is skipped.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping MongoDB knowledge store tests")
	}

	cfg := &Config{
		URI:        uri,
		Database:   "convodesk_test",
		Collection: "documents_test",
	}
	store, err := New(cfg)
	if err != nil {
		t.Skipf("failed to connect to MongoDB: %v", err)
	}
	defer store.Close(context.Background())

	ctx := context.Background()
	store.Clear(ctx)

	t.Run("write and search by topic", func(t *testing.T) {
		err := store.Write(ctx, "Solar",
			knowledge.Document{Title: "Panels", Content: "Solar panel overview", Score: 0.9, Type: "guide"},
			knowledge.Document{Title: "Pricing", Content: "Solar pricing tiers", Score: 0.8, Type: "guide"},
		)
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		docs, err := store.Search(ctx, "tell me about solar installation")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(docs) != 2 {
			t.Fatalf("expected 2 documents, got %d", len(docs))
		}
		if docs[0].Title != "Panels" {
			t.Errorf("expected insertion order preserved, got %q first", docs[0].Title)
		}
	})

	t.Run("no topic in query yields nothing", func(t *testing.T) {
		docs, err := store.Search(ctx, "completely unrelated question")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("expected no documents, got %d", len(docs))
		}
	})

	t.Run("topics and count", func(t *testing.T) {
		topics, err := store.Topics(ctx)
		if err != nil {
			t.Fatalf("Topics failed: %v", err)
		}
		if len(topics) != 1 || topics[0] != "solar" {
			t.Errorf("expected lowercased topic [solar], got %v", topics)
		}

		n, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 stored documents, got %d", n)
		}
	})
}
