package message

import (
	"testing"
)

func TestNew(t *testing.T) {
	msg := New(RoleUser, "Hello, world!")

	if msg.Role != RoleUser {
		t.Errorf("Expected role %s, got %s", RoleUser, msg.Role)
	}

	if msg.Content != "Hello, world!" {
		t.Errorf("Expected content 'Hello, world!', got '%s'", msg.Content)
	}

	if msg.ID == "" {
		t.Error("Expected non-empty ID")
	}

	if msg.CreatedAt.IsZero() {
		t.Error("Expected non-zero created time")
	}
}

func TestTrimDropsOldest(t *testing.T) {
	msgs := []Message{
		New(RoleUser, "one"),
		New(RoleAssistant, "two"),
		New(RoleUser, "three"),
	}

	trimmed := Trim(msgs, 2)
	if len(trimmed) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(trimmed))
	}
	if trimmed[0].Content != "two" || trimmed[1].Content != "three" {
		t.Errorf("expected oldest message evicted, got %q %q", trimmed[0].Content, trimmed[1].Content)
	}
}

func TestTrimNoopUnderCap(t *testing.T) {
	msgs := []Message{New(RoleUser, "only")}
	if got := Trim(msgs, 5); len(got) != 1 {
		t.Errorf("expected untouched slice, got %d messages", len(got))
	}
	if got := Trim(msgs, 0); len(got) != 1 {
		t.Errorf("expected trimming disabled for max=0, got %d messages", len(got))
	}
}

func TestTail(t *testing.T) {
	msgs := []Message{
		New(RoleUser, "a"),
		New(RoleAssistant, "b"),
		New(RoleUser, "c"),
	}

	tail := Tail(msgs, 2)
	if len(tail) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(tail))
	}
	if tail[0].Content != "b" {
		t.Errorf("expected tail to start at 'b', got %q", tail[0].Content)
	}
	if got := Tail(msgs, 0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}
}

func TestCloneCopiesMetadata(t *testing.T) {
	msg := New(RoleUser, "hello")
	msg.Metadata = map[string]any{"channel": "web"}

	cloned := Clone(msg)
	cloned.Metadata["channel"] = "api"

	if msg.Metadata["channel"] != "web" {
		t.Errorf("expected original metadata untouched, got %v", msg.Metadata["channel"])
	}
}
