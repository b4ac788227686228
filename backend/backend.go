// Package backend models the side effects the assistant can perform on
// behalf of a user and the stores that persist them.
package backend

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// Kind identifies one logical collection of backend records.
type Kind string

const (
	KindTicket          Kind = "ticket"
	KindAppointment     Kind = "appointment"
	KindComplaint       Kind = "complaint"
	KindDocumentRequest Kind = "document_request"
	KindProductInfo     Kind = "product_info"
)

// Kinds returns every known record kind.
func Kinds() []Kind {
	return []Kind{KindTicket, KindAppointment, KindComplaint, KindDocumentRequest, KindProductInfo}
}

// Valid reports whether the kind is one of the known collections.
func (k Kind) Valid() bool {
	switch k {
	case KindTicket, KindAppointment, KindComplaint, KindDocumentRequest, KindProductInfo:
		return true
	}
	return false
}

// Prefix returns the identifier prefix for records of this kind.
func (k Kind) Prefix() string {
	switch k {
	case KindTicket:
		return "TIC"
	case KindAppointment:
		return "APP"
	case KindComplaint:
		return "CMP"
	case KindDocumentRequest:
		return "REQ"
	case KindProductInfo:
		return "INF"
	}
	return "GEN"
}

// Collection returns the collection name records of this kind live in.
func (k Kind) Collection() string {
	switch k {
	case KindTicket:
		return "tickets"
	case KindAppointment:
		return "appointments"
	case KindComplaint:
		return "complaints"
	case KindDocumentRequest:
		return "document_requests"
	case KindProductInfo:
		return "product_info"
	}
	return string(k)
}

// Record is one persisted backend side effect.
type Record struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	Details   map[string]any `json:"details,omitempty"`
}

// ActionResult reports the outcome of one backend action.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
}

// Store persists action records, one logical collection per kind.
type Store interface {
	Save(ctx context.Context, kind Kind, rec Record) error
	Load(ctx context.Context, kind Kind, id string) (Record, error)
	List(ctx context.Context, kind Kind) ([]Record, error)
}

// NewID returns an identifier of the form "<PREFIX>-<8 uppercase hex chars>".
func NewID(prefix string) string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%s-%08X", prefix, uint32(time.Now().UnixNano()))
	}
	return fmt.Sprintf("%s-%08X", prefix, binary.BigEndian.Uint32(buf[:]))
}
