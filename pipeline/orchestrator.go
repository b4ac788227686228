// Package pipeline implements the multi-step conversation engine: a
// planner chooses which steps run for each turn, the steps mutate a shared
// State, and post-processing guarantees the user always receives a reply
// in their own language.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/convodesk/backend"
	"github.com/sweetpotato0/convodesk/history"
	"github.com/sweetpotato0/convodesk/knowledge"
	"github.com/sweetpotato0/convodesk/message"
	"github.com/sweetpotato0/convodesk/pkg/logging"
	"github.com/sweetpotato0/convodesk/pkg/telemetry"
)

// Config wires the orchestrator's collaborators and backends.
type Config struct {
	Planner     Planner     // step-sequence reasoner, nil always uses the deterministic rule
	Detector    Detector    // language detection
	Classifier  Classifier  // intent classification
	Generator   Generator   // reply generation
	Translator  Translator  // translation, shared by the pivot and the final step
	Verifier    Verifier    // reply verification, nil skips verification
	Clarifier   Clarifier   // follow-up question generation
	Transcriber Transcriber // speech to text, nil skips audio handling

	Knowledge knowledge.Store   // document retrieval backend, nil selects an empty store
	Actions   backend.Store     // action persistence, nil selects a file store under "data"
	Recorder  *history.Recorder // intent/clarification/validation logs, nil disables recording

	DefaultLanguage string // language assumed when detection fails, empty means "en"
	AppointmentHour int    // hour of day for scheduled appointments, zero selects 10
	Caps            Caps   // state collection bounds used by NewTurn, zero value selects defaults
	Logger          *slog.Logger
}

// Orchestrator coordinates the steps of one conversation turn.
type Orchestrator struct {
	planner    Planner
	translator Translator
	steps      map[StepName]Step
	clarify    *ClarificationStep
	verify     *VerificationStep
	translate  *TranslationStep
	caps       Caps
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New builds an orchestrator, substituting safe defaults for anything the
// config leaves nil.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.WithComponent("orchestrator")
	}

	var intentLog, clarificationLog, validationLog *history.Log
	if cfg.Recorder != nil {
		intentLog = cfg.Recorder.Intent
		clarificationLog = cfg.Recorder.Clarification
		validationLog = cfg.Recorder.Validation
	}

	caps := cfg.Caps
	if caps == (Caps{}) {
		caps = DefaultCaps()
	}

	action := NewActionStep(cfg.Actions, cfg.AppointmentHour)
	o := &Orchestrator{
		planner:    cfg.Planner,
		translator: cfg.Translator,
		steps: map[StepName]Step{
			StepLanguage: NewLanguageStep(cfg.Detector, cfg.Transcriber, cfg.DefaultLanguage),
			StepIntent:   NewIntentStep(cfg.Classifier, intentLog),
			StepRetrieve: NewRetrievalStep(cfg.Knowledge),
			StepRespond:  NewResponseStep(cfg.Generator, action),
		},
		clarify:   NewClarificationStep(cfg.Clarifier, clarificationLog),
		translate: NewTranslationStep(cfg.Translator),
		caps:      caps,
		logger:    logger,
		tracer:    telemetry.Tracer("pipeline"),
	}
	if cfg.Verifier != nil {
		o.verify = NewVerificationStep(cfg.Verifier, validationLog)
	}
	return o
}

// NewTurn creates the state for one turn using the configured caps.
func (o *Orchestrator) NewTurn(userID, sessionID, input string) *State {
	return NewStateWithCaps(userID, sessionID, input, o.caps)
}

// Run executes one turn: plan the sequence, run the steps with early exit
// on the error flag, clarify when the turn stayed unresolved, translate
// into the user's language and append the turn to the history.
func (o *Orchestrator) Run(ctx context.Context, st *State) error {
	seq, reasoning := o.planSequence(ctx, st.Input)
	st.ReasoningTrace = reasoning
	o.logger.Info("step sequence chosen", "reasoning", reasoning, "session_id", st.SessionID)

	original := st.Input
	for _, step := range seq {
		if err := o.runStep(ctx, step, st); err != nil {
			return fmt.Errorf("step %s: %w", step.Name(), err)
		}
		if st.ErrorFlag {
			o.logger.Warn("step sequence aborted", "step", step.Name(), "session_id", st.SessionID)
			break
		}
	}

	needClarification := st.Intent == "" || st.ErrorFlag
	if !needClarification && o.verify != nil {
		needClarification = !o.verify.Run(ctx, st)
	}
	if needClarification {
		o.clarify.Run(ctx, st)
	}

	o.translate.Run(ctx, st, st.Language, FormalityNeutral)

	st.AddHistory(message.RoleUser, original)
	st.AddHistory(message.RoleAssistant, st.Response)
	return nil
}

// runStep opens one span per step and pivots the input through English
// around intent detection for non-English turns, so the classifier sees
// text its keyword table and model were tuned for. The pre-pivot input is
// restored no matter how the step ends.
func (o *Orchestrator) runStep(ctx context.Context, step Step, st *State) (err error) {
	ctx, span := o.tracer.Start(ctx, "pipeline."+string(step.Name()),
		trace.WithAttributes(attribute.String("session.id", st.SessionID)))
	defer func() { telemetry.End(span, err) }()

	if step.Name() != StepIntent || st.Language == "en" || o.translator == nil {
		return step.Run(ctx, st)
	}

	current := st.Input
	pivoted, err := o.translator.Translate(ctx, current, "en")
	if err != nil || pivoted == "" {
		o.logger.Debug("pivot translation failed, classifying original input", "error", err)
		pivoted = current
	}
	st.Input = pivoted
	defer func() { st.Input = current }()
	return step.Run(ctx, st)
}

// planSequence chooses the step order for the input. The reasoner is
// best-effort: failures, unknown-only sequences and empty sequences fall
// back to the deterministic rule.
func (o *Orchestrator) planSequence(ctx context.Context, input string) ([]Step, string) {
	if o.planner != nil {
		available := make([]string, 0, len(StepNames()))
		for _, name := range StepNames() {
			available = append(available, string(name))
		}
		plan, err := o.planner.Plan(ctx, input, available)
		if err != nil {
			o.logger.Debug("planner unavailable, using fallback", "error", err)
		} else {
			steps := make([]Step, 0, len(plan.Sequence))
			for _, raw := range plan.Sequence {
				name, ok := ParseStepName(raw)
				if !ok {
					o.logger.Debug("dropping unknown step", "step", raw)
					continue
				}
				steps = append(steps, o.steps[name])
			}
			if len(steps) > 0 {
				return steps, plan.Reasoning
			}
		}
	}
	return o.fallbackSequence(input)
}

// fallbackSequence is the deterministic rule used when planning fails:
// quote-like requests get retrieval, everything else goes straight to the
// response.
func (o *Orchestrator) fallbackSequence(input string) ([]Step, string) {
	if strings.Contains(strings.ToLower(input), "quote") {
		seq := []Step{o.steps[StepLanguage], o.steps[StepIntent], o.steps[StepRetrieve], o.steps[StepRespond]}
		return seq, "fallback: quote request"
	}
	seq := []Step{o.steps[StepLanguage], o.steps[StepIntent], o.steps[StepRespond]}
	return seq, "fallback: default"
}
