package pipeline

import (
	"github.com/sweetpotato0/convodesk/backend"
	"github.com/sweetpotato0/convodesk/knowledge"
	"github.com/sweetpotato0/convodesk/message"
)

// Caps bound the append-only collections carried by State.
type Caps struct {
	History   int // max conversation turns kept
	Documents int // max retrieved documents kept
	Actions   int // max action results kept
}

// DefaultCaps returns the bounds used when none are configured.
func DefaultCaps() Caps {
	return Caps{History: 50, Documents: 10, Actions: 20}
}

// State is the mutable turn context threaded through every step. One State
// is created per user turn; only ConversationHistory survives across turns,
// re-attached by the caller.
type State struct {
	UserID    string
	SessionID string
	Input     string // current utterance, temporarily pivot-translated during intent detection

	Language               string  // ISO 639-1 code, defaults to en
	Intent                 string  // empty means unresolved
	Confidence             float64 // fused intent classification confidence
	Formality              string  // formal, informal or neutral, set by LanguageStep
	MixedLanguage          bool
	Documents              []knowledge.Document
	Response               string
	ReasoningTrace         string
	SourceReliability      float64
	ErrorFlag              bool // sticky failure signal, stops the remaining sequence
	ClarificationAttempted bool // monotonic within a turn
	ActionResults          []backend.ActionResult
	ConversationHistory    []message.Message

	caps Caps
}

// NewState creates the turn state with default caps.
func NewState(userID, sessionID, input string) *State {
	return NewStateWithCaps(userID, sessionID, input, DefaultCaps())
}

// NewStateWithCaps creates the turn state with explicit collection bounds.
// Non-positive bounds leave the matching collection unbounded.
func NewStateWithCaps(userID, sessionID, input string, caps Caps) *State {
	return &State{
		UserID:    userID,
		SessionID: sessionID,
		Input:     input,
		Language:  "en",
		caps:      caps,
	}
}

// AttachHistory replaces the conversation history, typically restored from
// a session store at turn start.
func (s *State) AttachHistory(msgs []message.Message) {
	s.ConversationHistory = message.Trim(msgs, s.caps.History)
}

// AddHistory appends one (role, content) turn, evicting the oldest entries
// past the cap.
func (s *State) AddHistory(role message.Role, content string) {
	s.ConversationHistory = append(s.ConversationHistory, message.New(role, content))
	s.ConversationHistory = message.Trim(s.ConversationHistory, s.caps.History)
}

// AddDocument appends a retrieved document, evicting the oldest past the cap.
func (s *State) AddDocument(doc knowledge.Document) {
	s.Documents = append(s.Documents, doc)
	if s.caps.Documents > 0 && len(s.Documents) > s.caps.Documents {
		s.Documents = s.Documents[len(s.Documents)-s.caps.Documents:]
	}
}

// AddActionResult appends an action outcome, evicting the oldest past the cap.
func (s *State) AddActionResult(res backend.ActionResult) {
	s.ActionResults = append(s.ActionResults, res)
	if s.caps.Actions > 0 && len(s.ActionResults) > s.caps.Actions {
		s.ActionResults = s.ActionResults[len(s.ActionResults)-s.caps.Actions:]
	}
}
