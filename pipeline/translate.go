package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// TranslationStep renders the outgoing response into the user's language.
type TranslationStep struct {
	translator Translator
	logger     *slog.Logger
}

// NewTranslationStep creates the step. A nil translator leaves the text
// unchanged but still applies autocorrection and the style tag.
func NewTranslationStep(translator Translator) *TranslationStep {
	return &TranslationStep{translator: translator, logger: logging.WithComponent("pipeline")}
}

// Run is a no-op when the state already carries the target language.
// Otherwise it autocorrects the text to translate (response when present,
// else input), translates it, optionally prefixes a style tag and
// overwrites the response. Translator failures keep the original text.
func (s *TranslationStep) Run(ctx context.Context, st *State, target, style string) {
	if target == "" || st.Language == target {
		return
	}

	text := st.Response
	if text == "" {
		text = st.Input
	}
	corrected := autoCorrect(text)

	translated := corrected
	if s.translator != nil {
		out, err := s.translator.Translate(ctx, corrected, target)
		if err != nil {
			s.logger.Warn("translation failed, keeping original text", "target", target, "error", err)
		} else if out != "" {
			translated = out
		}
	}

	if style != "" && style != FormalityNeutral {
		translated = "[" + style + "] " + translated
	}
	st.Response = translated
	st.Language = target
	st.SourceReliability = 0.6
}

// autoCorrect fixes the most common transposition before translating.
func autoCorrect(text string) string {
	text = strings.ReplaceAll(text, " teh ", " the ")
	return strings.ReplaceAll(text, "teh ", "the ")
}
