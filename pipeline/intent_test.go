package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sweetpotato0/convodesk/history"
)

func TestMatchIntentRules(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "I need a quote for the K2", want: "cost_estimation"},
		{input: "the unit arrived broken", want: "complaint"},
		{input: "there is an error in the price", want: "technical_support_request"},
		{input: "can you schedule a demo", want: "booking_or_schedule"},
		{input: "send me the manual", want: "document_request"},
		{input: "please open ticket for this", want: "open_ticket"},
		{input: "HELLO THERE", want: "generic_smalltalk"},
		{input: "Ciao!", want: "generic_smalltalk"},
		{input: "vorrei un preventivo", want: "cost_estimation"},
		{input: "where is my order", want: ""},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		if got := matchIntentRules(tt.input); got != tt.want {
			t.Errorf("matchIntentRules(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIntentStepConfidenceLadder(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		classifier    string
		classifierErr error
		wantIntent    string
		wantConf      float64
	}{
		{
			name:       "signals agree",
			input:      "how much does it cost",
			classifier: "cost_estimation",
			wantIntent: "cost_estimation",
			wantConf:   1.0,
		},
		{
			name:       "classifier overrides rule",
			input:      "how much does it cost",
			classifier: "complaint",
			wantIntent: "complaint",
			wantConf:   0.9,
		},
		{
			name:       "classifier alone",
			input:      "where is my order",
			classifier: "product_information_request",
			wantIntent: "product_information_request",
			wantConf:   0.8,
		},
		{
			name:       "silent classifier inherits the rule match",
			input:      "how much does it cost",
			wantIntent: "cost_estimation",
			wantConf:   1.0,
		},
		{
			name:          "classifier error inherits the rule match",
			input:         "how much does it cost",
			classifierErr: errors.New("model offline"),
			wantIntent:    "cost_estimation",
			wantConf:      1.0,
		},
		{
			name:       "unknown classifier answer inherits the rule match",
			input:      "how much does it cost",
			classifier: "nonsense_intent",
			wantIntent: "cost_estimation",
			wantConf:   1.0,
		},
		{
			name:       "no signal",
			input:      "where is my order",
			wantIntent: "",
			wantConf:   0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &stubClassifier{intent: tt.classifier, err: tt.classifierErr}
			step := NewIntentStep(classifier, nil)

			st := NewState("u1", "s1", tt.input)
			if err := step.Run(context.Background(), st); err != nil {
				t.Fatalf("Run: %v", err)
			}

			if st.Intent != tt.wantIntent {
				t.Errorf("Intent = %q, want %q", st.Intent, tt.wantIntent)
			}
			if st.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", st.Confidence, tt.wantConf)
			}
			if st.SourceReliability != tt.wantConf {
				t.Errorf("SourceReliability = %v, want %v", st.SourceReliability, tt.wantConf)
			}
		})
	}
}

func TestIntentStepHistoryFallback(t *testing.T) {
	intentLog := history.NewLog(filepath.Join(t.TempDir(), "intent_log.log"))
	for _, entry := range []string{"cost_estimation", "cost_estimation", "complaint", "unclear", "unclear", "unclear"} {
		if err := intentLog.Append(entry); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	step := NewIntentStep(&stubClassifier{}, intentLog)
	st := NewState("u1", "s1", "where is my order")
	if err := step.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if st.Intent != "cost_estimation" {
		t.Errorf("Intent = %q, want the historically frequent %q", st.Intent, "cost_estimation")
	}
	if st.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", st.Confidence)
	}
}

func TestIntentStepRecordsOutcome(t *testing.T) {
	intentLog := history.NewLog(filepath.Join(t.TempDir(), "intent_log.log"))
	step := NewIntentStep(&stubClassifier{}, intentLog)

	st := NewState("u1", "s1", "zzz")
	if err := step.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st = NewState("u1", "s1", "I want a quote")
	if err := step.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	msgs := intentLog.Messages()
	if len(msgs) != 2 {
		t.Fatalf("log entries = %d, want 2", len(msgs))
	}
	if msgs[0] != "unclear" {
		t.Errorf("first entry = %q, want %q", msgs[0], "unclear")
	}
	if msgs[1] != "cost_estimation" {
		t.Errorf("second entry = %q, want %q", msgs[1], "cost_estimation")
	}
}
