package pipeline

import (
	"context"
	"errors"
	"testing"
)

func TestTranslationNoOpOnSameLanguage(t *testing.T) {
	translator := &stubTranslator{prefix: "XX:"}
	step := NewTranslationStep(translator)

	st := NewState("u1", "s1", "ciao")
	st.Language = "it"
	st.Response = "Ciao! Come posso aiutarti?"
	step.Run(context.Background(), st, "it", FormalityNeutral)

	if st.Response != "Ciao! Come posso aiutarti?" {
		t.Errorf("Response = %q, want unchanged", st.Response)
	}
	if len(translator.calls) != 0 {
		t.Errorf("translator calls = %d, want 0", len(translator.calls))
	}
}

func TestTranslationNoOpOnEmptyTarget(t *testing.T) {
	translator := &stubTranslator{}
	step := NewTranslationStep(translator)

	st := NewState("u1", "s1", "hello")
	st.Response = "hi"
	step.Run(context.Background(), st, "", FormalityNeutral)

	if len(translator.calls) != 0 {
		t.Errorf("translator calls = %d, want 0", len(translator.calls))
	}
}

func TestTranslationTranslatesResponse(t *testing.T) {
	translator := &stubTranslator{prefix: "IT:"}
	step := NewTranslationStep(translator)

	st := NewState("u1", "s1", "hello")
	st.Language = "en"
	st.Response = "Good morning"
	step.Run(context.Background(), st, "it", FormalityNeutral)

	if st.Response != "IT:Good morning" {
		t.Errorf("Response = %q, want the translation", st.Response)
	}
	if st.Language != "it" {
		t.Errorf("Language = %q, want %q", st.Language, "it")
	}
	if st.SourceReliability != 0.6 {
		t.Errorf("SourceReliability = %v, want 0.6", st.SourceReliability)
	}
}

func TestTranslationFallsBackToInput(t *testing.T) {
	translator := &stubTranslator{prefix: "IT:"}
	step := NewTranslationStep(translator)

	st := NewState("u1", "s1", "good evening")
	st.Language = "en"
	step.Run(context.Background(), st, "it", FormalityNeutral)

	if st.Response != "IT:good evening" {
		t.Errorf("Response = %q, want the translated input", st.Response)
	}
}

func TestTranslationAutocorrect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "teh cat sat on teh mat", want: "the cat sat on the mat"},
		{in: "check teh manual", want: "check the manual"},
		{in: "the theme is fine", want: "the theme is fine"},
	}

	for _, tt := range tests {
		if got := autoCorrect(tt.in); got != tt.want {
			t.Errorf("autoCorrect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTranslationAutocorrectsBeforeTranslating(t *testing.T) {
	translator := &stubTranslator{}
	step := NewTranslationStep(translator)

	st := NewState("u1", "s1", "x")
	st.Language = "en"
	st.Response = "read teh manual"
	step.Run(context.Background(), st, "it", FormalityNeutral)

	if len(translator.calls) != 1 {
		t.Fatalf("translator calls = %d, want 1", len(translator.calls))
	}
	if translator.calls[0] != "it|read the manual" {
		t.Errorf("translator saw %q, want the corrected text", translator.calls[0])
	}
}

func TestTranslationStyleTag(t *testing.T) {
	step := NewTranslationStep(&stubTranslator{})

	st := NewState("u1", "s1", "x")
	st.Language = "en"
	st.Response = "Good morning"
	step.Run(context.Background(), st, "it", FormalityFormal)

	if st.Response != "[formal] Good morning" {
		t.Errorf("Response = %q, want the style tag", st.Response)
	}
}

func TestTranslationTranslatorFailure(t *testing.T) {
	translator := &stubTranslator{err: errors.New("model offline")}
	step := NewTranslationStep(translator)

	st := NewState("u1", "s1", "x")
	st.Language = "en"
	st.Response = "Good morning"
	step.Run(context.Background(), st, "it", FormalityNeutral)

	if st.Response != "Good morning" {
		t.Errorf("Response = %q, want the original text kept", st.Response)
	}
	if st.Language != "it" {
		t.Errorf("Language = %q, want the target recorded anyway", st.Language)
	}
}

func TestTranslationNilTranslator(t *testing.T) {
	step := NewTranslationStep(nil)

	st := NewState("u1", "s1", "x")
	st.Language = "en"
	st.Response = "Good morning"
	step.Run(context.Background(), st, "it", FormalityNeutral)

	if st.Response != "Good morning" {
		t.Errorf("Response = %q, want the text passed through", st.Response)
	}
	if st.SourceReliability != 0.6 {
		t.Errorf("SourceReliability = %v, want 0.6", st.SourceReliability)
	}
}
