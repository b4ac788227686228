package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/convodesk/backend"
	errorskg "github.com/sweetpotato0/convodesk/errors"
)

type stubCaller struct {
	lastName string
	lastArgs map[string]any
	reply    string
	err      error
}

func (s *stubCaller) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	s.lastName = name
	s.lastArgs = args
	return s.reply, s.err
}

func TestStoreSave(t *testing.T) {
	caller := &stubCaller{}
	store := NewStore(caller)

	rec := backend.Record{
		ID:        "TIC-00AB12CD",
		UserID:    "u1",
		SessionID: "s1",
		Status:    "open",
		CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	if err := store.Save(context.Background(), backend.KindTicket, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if caller.lastName != "save_record" {
		t.Errorf("expected save_record tool, got %q", caller.lastName)
	}
	if caller.lastArgs["collection"] != "tickets" {
		t.Errorf("expected tickets collection, got %v", caller.lastArgs["collection"])
	}
}

func TestStoreSaveRejectsBadInput(t *testing.T) {
	store := NewStore(&stubCaller{})

	err := store.Save(context.Background(), backend.Kind("bogus"), backend.Record{ID: "X-1"})
	if !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown kind, got %v", err)
	}

	err = store.Save(context.Background(), backend.KindTicket, backend.Record{})
	if !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestStoreLoad(t *testing.T) {
	caller := &stubCaller{reply: `{"id":"APP-12345678","user_id":"u1","session_id":"s1","status":"scheduled"}`}
	store := NewStore(caller)

	rec, err := store.Load(context.Background(), backend.KindAppointment, "APP-12345678")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.ID != "APP-12345678" || rec.Status != "scheduled" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if caller.lastArgs["collection"] != "appointments" {
		t.Errorf("expected appointments collection, got %v", caller.lastArgs["collection"])
	}
}

func TestStoreLoadEmptyReplyIsNotFound(t *testing.T) {
	store := NewStore(&stubCaller{reply: ""})

	_, err := store.Load(context.Background(), backend.KindTicket, "TIC-DEADBEEF")
	if !errors.Is(err, errorskg.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	caller := &stubCaller{reply: `[{"id":"CMP-1"},{"id":"CMP-2"}]`}
	store := NewStore(caller)

	records, err := store.List(context.Background(), backend.KindComplaint)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 || records[0].ID != "CMP-1" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestStoreToolErrorPropagates(t *testing.T) {
	caller := &stubCaller{err: &ToolError{Name: "save_record", Message: "backend offline"}}
	store := NewStore(caller)

	err := store.Save(context.Background(), backend.KindTicket, backend.Record{ID: "TIC-1"})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if toolErr.Message != "backend offline" {
		t.Errorf("unexpected message: %q", toolErr.Message)
	}
}

func TestNormalizeContent(t *testing.T) {
	got := normalizeContent([]sdkmcp.Content{
		&sdkmcp.TextContent{Text: "  first  "},
		&sdkmcp.TextContent{Text: "second"},
	})
	if got != "first  \nsecond" {
		t.Errorf("unexpected normalized content: %q", got)
	}

	if normalizeContent(nil) != "" {
		t.Error("expected empty string for no content")
	}
}
