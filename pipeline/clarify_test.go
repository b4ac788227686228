package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sweetpotato0/convodesk/history"
)

func TestClarificationContextualQuestionWins(t *testing.T) {
	clarifier := &stubClarifier{contextual: "Which product do you mean?", simple: "unused"}
	step := NewClarificationStep(clarifier, nil)

	st := NewState("u1", "s1", "it does not work")
	step.Run(context.Background(), st)

	if st.Response != "Which product do you mean?" {
		t.Errorf("Response = %q, want the contextual question", st.Response)
	}
	if !st.ClarificationAttempted {
		t.Error("ClarificationAttempted = false, want true")
	}
	if clarifier.simpleCalls != 0 {
		t.Errorf("simple calls = %d, want 0", clarifier.simpleCalls)
	}
}

func TestClarificationFallsBackToSimple(t *testing.T) {
	clarifier := &stubClarifier{
		contextualErr: errors.New("model offline"),
		simple:        "What do you need help with?",
	}
	step := NewClarificationStep(clarifier, nil)

	st := NewState("u1", "s1", "boh")
	step.Run(context.Background(), st)

	if st.Response != "What do you need help with?" {
		t.Errorf("Response = %q, want the simple question", st.Response)
	}
	if clarifier.contextualCalls != 1 || clarifier.simpleCalls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", clarifier.contextualCalls, clarifier.simpleCalls)
	}
}

func TestClarificationFallsBackToFrequentQuestion(t *testing.T) {
	clarificationLog := history.NewLog(filepath.Join(t.TempDir(), "clarification_log.log"))
	for _, q := range []string{"Do you want a quote?", "Do you want a quote?", "Which model?"} {
		if err := clarificationLog.Append(q); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	clarifier := &stubClarifier{
		contextualErr: errors.New("model offline"),
		simpleErr:     errors.New("model offline"),
	}
	step := NewClarificationStep(clarifier, clarificationLog)

	st := NewState("u1", "s1", "boh")
	step.Run(context.Background(), st)

	if st.Response != "Do you want a quote?" {
		t.Errorf("Response = %q, want the most frequent past question", st.Response)
	}
}

func TestClarificationDefaultQuestion(t *testing.T) {
	step := NewClarificationStep(nil, nil)

	st := NewState("u1", "s1", "boh")
	step.Run(context.Background(), st)

	if st.Response != defaultClarification {
		t.Errorf("Response = %q, want %q", st.Response, defaultClarification)
	}
}

func TestClarificationFormalSalutation(t *testing.T) {
	step := NewClarificationStep(nil, nil)

	st := NewState("u1", "s1", "boh")
	st.Formality = FormalityFormal
	step.Run(context.Background(), st)

	want := formalSalutation + defaultClarification
	if st.Response != want {
		t.Errorf("Response = %q, want %q", st.Response, want)
	}
}

func TestClarificationOverwritesResponse(t *testing.T) {
	step := NewClarificationStep(&stubClarifier{contextual: "Can you rephrase?"}, nil)

	st := NewState("u1", "s1", "boh")
	st.Response = "some earlier draft"
	step.Run(context.Background(), st)

	if st.Response != "Can you rephrase?" {
		t.Errorf("Response = %q, want the question to replace the draft", st.Response)
	}
}

func TestClarificationAttemptIsMonotonic(t *testing.T) {
	step := NewClarificationStep(nil, nil)

	st := NewState("u1", "s1", "boh")
	step.Run(context.Background(), st)
	step.Run(context.Background(), st)

	if !st.ClarificationAttempted {
		t.Error("ClarificationAttempted = false, want true after repeated runs")
	}
}

func TestClarificationRecordsQuestion(t *testing.T) {
	clarificationLog := history.NewLog(filepath.Join(t.TempDir(), "clarification_log.log"))
	step := NewClarificationStep(&stubClarifier{contextual: "Which model?"}, clarificationLog)

	st := NewState("u1", "s1", "boh")
	st.Formality = FormalityFormal
	step.Run(context.Background(), st)

	msgs := clarificationLog.Messages()
	if len(msgs) != 1 {
		t.Fatalf("log entries = %d, want 1", len(msgs))
	}
	if msgs[0] != formalSalutation+"Which model?" {
		t.Errorf("recorded = %q, want the prefixed question", msgs[0])
	}
}
