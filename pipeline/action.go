package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweetpotato0/convodesk/backend"
	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// ActionStep dispatches resolved intents to backend side effects: tickets,
// appointments, complaints, document requests and product information logs.
type ActionStep struct {
	store  backend.Store
	hour   int
	now    func() time.Time
	logger *slog.Logger
}

// NewActionStep creates the step. A nil store selects a file store under
// "data"; an hour outside 1..23 selects 10.
func NewActionStep(store backend.Store, appointmentHour int) *ActionStep {
	if store == nil {
		store = backend.NewFileStore("data")
	}
	if appointmentHour <= 0 || appointmentHour > 23 {
		appointmentHour = 10
	}
	return &ActionStep{
		store:  store,
		hour:   appointmentHour,
		now:    time.Now,
		logger: logging.WithComponent("pipeline"),
	}
}

// Run executes the intent's action and records the outcome. Persistence
// failures and unknown intents yield a failure result with reliability 0.3;
// a panic inside dispatch yields 0.1. Both raise the error flag.
func (s *ActionStep) Run(ctx context.Context, st *State) error {
	result, unexpected := s.dispatch(ctx, st)
	st.AddActionResult(result)
	switch {
	case unexpected:
		st.SourceReliability = 0.1
		st.ErrorFlag = true
	case result.Success:
		st.SourceReliability = 0.9
	default:
		st.SourceReliability = 0.3
		st.ErrorFlag = true
	}
	s.logger.Info("action executed",
		"intent", st.Intent,
		"success", result.Success,
		"id", result.ID,
		"session_id", st.SessionID)
	return nil
}

func (s *ActionStep) dispatch(ctx context.Context, st *State) (result backend.ActionResult, unexpected bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("action dispatch panicked", "intent", st.Intent, "panic", r)
			result = backend.ActionResult{
				Success: false,
				Message: fmt.Sprintf("action failed unexpectedly for %s", st.Intent),
			}
			unexpected = true
		}
	}()

	switch st.Intent {
	case "open_ticket":
		return s.persist(ctx, st, backend.KindTicket, "open", map[string]any{
			"subject": st.Input,
		}), false
	case "booking_or_schedule":
		when := nextBusinessDay(s.now(), s.hour)
		return s.persist(ctx, st, backend.KindAppointment, "scheduled", map[string]any{
			"scheduled_for": when.Format(time.RFC3339),
		}), false
	case "complaint":
		return s.persist(ctx, st, backend.KindComplaint, "received", map[string]any{
			"description": st.Input,
		}), false
	case "document_request":
		return s.persist(ctx, st, backend.KindDocumentRequest, "pending", map[string]any{
			"document": st.Input,
		}), false
	case "product_information_request":
		return s.persist(ctx, st, backend.KindProductInfo, "logged", map[string]any{
			"question": st.Input,
		}), false
	case "cost_estimation":
		return backend.ActionResult{Success: true, Message: "quotation request noted, a detailed quote will follow"}, false
	case "generic_smalltalk":
		return backend.ActionResult{Success: true, Message: "nothing to do for small talk"}, false
	default:
		return backend.ActionResult{
			Success: false,
			Message: fmt.Sprintf("no action defined for intent %q", st.Intent),
		}, false
	}
}

// persist saves one record and reports the outcome without failing the step.
func (s *ActionStep) persist(ctx context.Context, st *State, kind backend.Kind, status string, details map[string]any) backend.ActionResult {
	rec := backend.Record{
		ID:        backend.NewID(kind.Prefix()),
		UserID:    st.UserID,
		SessionID: st.SessionID,
		Status:    status,
		CreatedAt: s.now().UTC(),
		Details:   details,
	}
	if err := s.store.Save(ctx, kind, rec); err != nil {
		s.logger.Error("failed to persist action record", "kind", kind, "error", err)
		return backend.ActionResult{
			Success: false,
			Message: fmt.Sprintf("could not record %s", kind),
			Kind:    kind,
		}
	}
	return backend.ActionResult{
		Success: true,
		Message: fmt.Sprintf("%s recorded as %s", kind, rec.ID),
		ID:      rec.ID,
		Kind:    kind,
	}
}

// nextBusinessDay returns the first weekday after from, at the given hour
// in from's location. Saturdays and Sundays are skipped.
func nextBusinessDay(from time.Time, hour int) time.Time {
	day := from.AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, from.Location())
}
