package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// Formality labels attached by LanguageStep.
const (
	FormalityFormal   = "formal"
	FormalityInformal = "informal"
	FormalityNeutral  = "neutral"
)

// formalMarkers take precedence over informalMarkers when both match.
var formalMarkers = []string{"gentile", "salve", "buongiorno", "distinti"}

var informalMarkers = []string{"ciao", "hey", "hola"}

// languageMarkers drives mixed-language detection: an input whose tokens
// hit the marker sets of more than one language is flagged as mixed.
var languageMarkers = map[string][]string{
	"en": {"hello", "hi", "thanks", "please"},
	"it": {"ciao", "salve", "grazie", "buongiorno"},
	"es": {"hola", "gracias", "buenos"},
}

// LanguageStep detects language, formality and mixed-language input.
// Audio inputs (paths ending in .wav or .mp3) are transcribed first and
// the transcript replaces the input for the rest of the turn.
type LanguageStep struct {
	detector    Detector
	transcriber Transcriber
	fallback    string
	logger      *slog.Logger
}

// NewLanguageStep creates the step. A nil detector or a detection failure
// leaves the language at fallback; empty fallback means "en". A nil
// transcriber skips audio handling.
func NewLanguageStep(detector Detector, transcriber Transcriber, fallback string) *LanguageStep {
	if fallback == "" {
		fallback = "en"
	}
	return &LanguageStep{
		detector:    detector,
		transcriber: transcriber,
		fallback:    fallback,
		logger:      logging.WithComponent("pipeline"),
	}
}

// Name implements Step.
func (s *LanguageStep) Name() StepName { return StepLanguage }

// Run never fails: every fallback path degrades to neutral defaults.
func (s *LanguageStep) Run(ctx context.Context, st *State) error {
	if s.transcriber != nil && isAudioPath(st.Input) {
		text, err := s.transcriber.Transcribe(ctx, st.Input)
		if err != nil {
			s.logger.Warn("transcription failed, keeping raw input", "error", err)
		} else if text != "" {
			st.Input = text
		}
	}

	lang := s.fallback
	if s.detector != nil {
		code, err := s.detector.Detect(ctx, st.Input)
		if err != nil {
			s.logger.Debug("language detection failed, using fallback", "fallback", s.fallback, "error", err)
		} else if code != "" {
			lang = code
		}
	}
	st.Language = lang
	st.Formality = detectFormality(st.Input)
	st.MixedLanguage = mixedLanguage(st.Input)
	st.SourceReliability = 0.7
	return nil
}

func isAudioPath(input string) bool {
	return strings.HasSuffix(input, ".wav") || strings.HasSuffix(input, ".mp3")
}

func detectFormality(text string) string {
	lower := strings.ToLower(text)
	for _, w := range formalMarkers {
		if strings.Contains(lower, w) {
			return FormalityFormal
		}
	}
	for _, w := range informalMarkers {
		if strings.Contains(lower, w) {
			return FormalityInformal
		}
	}
	return FormalityNeutral
}

func mixedLanguage(text string) bool {
	tokens := tokenize(text)
	detected := 0
	for _, markers := range languageMarkers {
		for _, w := range markers {
			if _, ok := tokens[w]; ok {
				detected++
				break
			}
		}
	}
	return detected > 1
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}
