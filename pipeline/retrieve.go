package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/knowledge"
	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// GuestUserID marks unauthenticated callers, which are never allowed to
// see retrieved content.
const GuestUserID = "guest"

// RetrievalStep looks up documents for the current input.
type RetrievalStep struct {
	store  knowledge.Store
	logger *slog.Logger
}

// NewRetrievalStep creates the step. A nil store selects an empty
// in-memory topic store.
func NewRetrievalStep(store knowledge.Store) *RetrievalStep {
	if store == nil {
		store = knowledge.NewTopicStore()
	}
	return &RetrievalStep{store: store, logger: logging.WithComponent("pipeline")}
}

// Name implements Step.
func (s *RetrievalStep) Name() StepName { return StepRetrieve }

// Run fills State.Documents from the store. Guests are rejected outright;
// store failures empty the documents and raise the error flag.
func (s *RetrievalStep) Run(ctx context.Context, st *State) error {
	if st.UserID == GuestUserID {
		st.Documents = nil
		st.ErrorFlag = true
		s.logger.Warn("retrieval denied for guest user", "session_id", st.SessionID)
		return nil
	}

	// A blank query can never match, so it grades like any empty result.
	query := strings.TrimSpace(st.Input)
	if query == "" {
		st.Documents = nil
		st.SourceReliability = 0.5
		return nil
	}

	docs, err := s.store.Search(ctx, query)
	if err != nil {
		st.Documents = nil
		st.SourceReliability = 0.0
		st.ErrorFlag = true
		s.logger.Error("document search failed", "error", err)
		return nil
	}

	st.Documents = nil
	for _, doc := range docs {
		st.AddDocument(doc)
	}
	if len(st.Documents) > 0 {
		st.SourceReliability = 0.9
	} else {
		st.SourceReliability = 0.5
	}
	s.logger.Debug("retrieved documents", "count", len(st.Documents), "query", query)
	return nil
}
