package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/convodesk/history"
	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// intentRule pairs an intent with the lowercased substrings that trigger it.
type intentRule struct {
	name     string
	keywords []string
}

// intentRules is the rule table in explicit priority order: the first
// matching intent wins when an input hits keywords of several intents.
var intentRules = []intentRule{
	{name: "technical_support_request", keywords: []string{"error", "issue", "problem", "help", "doesn't", "won't"}},
	{name: "product_information_request", keywords: []string{"feature", "spec", "compatibility", "information", "detail"}},
	{name: "cost_estimation", keywords: []string{"quote", "pricing", "price", "cost", "preventivo"}},
	{name: "booking_or_schedule", keywords: []string{"schedule", "appointment", "booking", "demo", "meeting", "install"}},
	{name: "document_request", keywords: []string{"manual", "document", "certificate", "datasheet", "pdf"}},
	{name: "open_ticket", keywords: []string{"open ticket", "create ticket", "support ticket"}},
	{name: "complaint", keywords: []string{"complaint", "dissatisfied", "disappointed", "broken", "damaged"}},
	{name: "generic_smalltalk", keywords: []string{"hello", "hi", "ciao", "thanks", "thank you"}},
}

// Intents returns the known intent names in rule priority order.
func Intents() []string {
	names := make([]string, 0, len(intentRules))
	for _, rule := range intentRules {
		names = append(names, rule.name)
	}
	return names
}

// KnownIntent reports whether name is one of the catalog intents.
func KnownIntent(name string) bool {
	for _, rule := range intentRules {
		if rule.name == name {
			return true
		}
	}
	return false
}

// IntentStep fuses a keyword rule guess, an external classifier guess and
// the historical intent log into a final (intent, confidence) pair.
type IntentStep struct {
	classifier Classifier
	log        *history.Log
	logger     *slog.Logger
}

// NewIntentStep creates the step. A nil classifier leaves only the rule
// table and the historical log as signals; a nil log disables both the
// historical fallback and intent recording.
func NewIntentStep(classifier Classifier, intentLog *history.Log) *IntentStep {
	return &IntentStep{
		classifier: classifier,
		log:        intentLog,
		logger:     logging.WithComponent("pipeline"),
	}
}

// Name implements Step.
func (s *IntentStep) Name() StepName { return StepIntent }

// Run resolves intent and confidence. A silent or failing classifier
// backfills its guess from the rule match, then from the historical log,
// before the ladder runs: agreement 1.0, classifier over a disagreeing
// rule 0.9, classifier (or backfill) alone 0.8, rule alone 0.6, nothing
// 0.0. The backfill means a rule match with no classifier scores as
// agreement.
func (s *IntentStep) Run(ctx context.Context, st *State) error {
	ruleGuess := matchIntentRules(st.Input)

	llmGuess := ""
	if s.classifier != nil {
		guess, err := s.classifier.Classify(ctx, st.Input)
		if err != nil {
			s.logger.Warn("intent classifier unavailable", "error", err)
		} else if KnownIntent(guess) {
			llmGuess = guess
		}
	}
	if llmGuess == "" {
		if ruleGuess != "" {
			llmGuess = ruleGuess
		} else {
			llmGuess = s.frequentIntent()
		}
	}

	switch {
	case llmGuess != "" && llmGuess == ruleGuess:
		st.Intent, st.Confidence = llmGuess, 1.0
	case llmGuess != "" && ruleGuess != "":
		st.Intent, st.Confidence = llmGuess, 0.9
	case llmGuess != "":
		st.Intent, st.Confidence = llmGuess, 0.8
	case ruleGuess != "":
		st.Intent, st.Confidence = ruleGuess, 0.6
	default:
		st.Intent, st.Confidence = "", 0.0
	}
	st.SourceReliability = st.Confidence

	s.record(st.Intent)
	return nil
}

// matchIntentRules returns the first intent whose keywords appear in the
// lowercased input, or empty.
func matchIntentRules(input string) string {
	lower := strings.ToLower(input)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.name
			}
		}
	}
	return ""
}

// frequentIntent returns the intent seen most often in the log, counting
// only entries that are still catalog intents.
func (s *IntentStep) frequentIntent() string {
	if s.log == nil {
		return ""
	}
	name, ok := s.log.MostFrequent(KnownIntent)
	if !ok {
		return ""
	}
	return name
}

func (s *IntentStep) record(intent string) {
	if s.log == nil {
		return
	}
	entry := intent
	if entry == "" {
		entry = "unclear"
	}
	if err := s.log.Append(entry); err != nil {
		s.logger.Warn("failed to record intent", "error", err)
	}
}
