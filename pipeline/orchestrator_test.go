package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sweetpotato0/convodesk/knowledge"
	"github.com/sweetpotato0/convodesk/llm"
	"github.com/sweetpotato0/convodesk/message"
)

func TestOrchestratorSmalltalkTurn(t *testing.T) {
	detector := &stubDetector{language: "it"}
	classifier := &stubClassifier{intent: "generic_smalltalk"}
	generator := &stubGenerator{reply: "Ciao! Sto bene, grazie."}
	verifier := &stubVerifier{votes: []bool{true, true, true}}

	o := New(Config{
		Detector:   detector,
		Classifier: classifier,
		Generator:  generator,
		Translator: &stubTranslator{},
		Verifier:   verifier,
		Clarifier:  &stubClarifier{contextual: "unused"},
		Knowledge:  knowledge.NewTopicStore(),
		Actions:    newMemoryBackend(),
	})

	st := o.NewTurn("u1", "s1", "Ciao, come stai?")
	if err := o.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if st.ReasoningTrace != "fallback: default" {
		t.Errorf("ReasoningTrace = %q, want %q", st.ReasoningTrace, "fallback: default")
	}
	if st.Language != "it" {
		t.Errorf("Language = %q, want %q", st.Language, "it")
	}
	if st.Formality != FormalityInformal {
		t.Errorf("Formality = %q, want %q", st.Formality, FormalityInformal)
	}
	if st.Intent != "generic_smalltalk" || st.Confidence != 1.0 {
		t.Errorf("intent = (%q, %v), want (generic_smalltalk, 1.0)", st.Intent, st.Confidence)
	}
	if st.Response != "Ciao! Sto bene, grazie." {
		t.Errorf("Response = %q, want the generated reply", st.Response)
	}
	if st.ClarificationAttempted {
		t.Error("ClarificationAttempted = true, want false on a clean turn")
	}
	if verifier.calls != 3 {
		t.Errorf("verifier calls = %d, want 3", verifier.calls)
	}
	if len(st.ConversationHistory) != 2 {
		t.Fatalf("history = %d entries, want 2", len(st.ConversationHistory))
	}
	if st.ConversationHistory[0].Role != message.RoleUser || st.ConversationHistory[0].Content != "Ciao, come stai?" {
		t.Errorf("history[0] = %+v, want the original user input", st.ConversationHistory[0])
	}
	if st.ConversationHistory[1].Role != message.RoleAssistant || st.ConversationHistory[1].Content != st.Response {
		t.Errorf("history[1] = %+v, want the assistant reply", st.ConversationHistory[1])
	}
}

func TestOrchestratorQuoteFallback(t *testing.T) {
	planner := &stubPlanner{err: errors.New("model offline")}
	o := New(Config{
		Planner:    planner,
		Detector:   &stubDetector{language: "en"},
		Classifier: &stubClassifier{intent: "cost_estimation"},
		Verifier:   &stubVerifier{votes: []bool{true, true, true}},
		Clarifier:  &stubClarifier{},
		Knowledge:  knowledge.NewTopicStore(),
		Actions:    newMemoryBackend(),
	})

	st := o.NewTurn("u1", "s1", "I need a quote for installation")
	if err := o.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if planner.calls != 1 {
		t.Errorf("planner calls = %d, want 1", planner.calls)
	}
	if st.ReasoningTrace != "fallback: quote request" {
		t.Errorf("ReasoningTrace = %q, want %q", st.ReasoningTrace, "fallback: quote request")
	}
	if st.Intent != "cost_estimation" || st.Confidence != 1.0 {
		t.Errorf("intent = (%q, %v), want (cost_estimation, 1.0)", st.Intent, st.Confidence)
	}
	if !strings.HasPrefix(st.Response, `Action taken for intent "cost_estimation"`) {
		t.Errorf("Response = %q, want the action acknowledgement", st.Response)
	}
	if st.SourceReliability != 0.8 {
		t.Errorf("SourceReliability = %v, want 0.8", st.SourceReliability)
	}
}

func TestOrchestratorHonorsPlannedSequence(t *testing.T) {
	planner := &stubPlanner{plan: &llm.Plan{
		Reasoning: "retrieval first",
		Sequence:  []string{"Language", "retrieve", "bogus", "respond"},
	}}
	generator := &stubGenerator{reply: "draft"}
	verifier := &stubVerifier{votes: []bool{true, true, true}}
	clarifier := &stubClarifier{contextual: "What would you like to know?"}

	o := New(Config{
		Planner:    planner,
		Detector:   &stubDetector{language: "en"},
		Classifier: &stubClassifier{intent: "cost_estimation"},
		Generator:  generator,
		Verifier:   verifier,
		Clarifier:  clarifier,
		Knowledge:  knowledge.NewTopicStore(),
		Actions:    newMemoryBackend(),
	})

	st := o.NewTurn("u1", "s1", "tell me about pricing")
	if err := o.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if st.ReasoningTrace != "retrieval first" {
		t.Errorf("ReasoningTrace = %q, want the planner's reasoning", st.ReasoningTrace)
	}
	if st.Intent != "" {
		t.Errorf("Intent = %q, want empty when the plan skips intent detection", st.Intent)
	}
	if !st.ClarificationAttempted {
		t.Error("ClarificationAttempted = false, want true for an unresolved turn")
	}
	if st.Response != "What would you like to know?" {
		t.Errorf("Response = %q, want the clarification question", st.Response)
	}
	if verifier.calls != 0 {
		t.Errorf("verifier calls = %d, want 0 when clarification already decided", verifier.calls)
	}
}

func TestOrchestratorAbortsOnErrorFlag(t *testing.T) {
	planner := &stubPlanner{plan: &llm.Plan{
		Reasoning: "full pass",
		Sequence:  []string{"language", "intent", "retrieve", "respond"},
	}}
	generator := &stubGenerator{reply: "unused"}
	verifier := &stubVerifier{votes: []bool{true, true, true}}

	o := New(Config{
		Planner:    planner,
		Detector:   &stubDetector{language: "en"},
		Classifier: &stubClassifier{intent: "cost_estimation"},
		Generator:  generator,
		Verifier:   verifier,
		Clarifier:  &stubClarifier{contextual: "Could you sign in first?"},
		Knowledge:  knowledge.NewTopicStore(),
		Actions:    newMemoryBackend(),
	})

	st := o.NewTurn(GuestUserID, "s1", "what is your pricing")
	if err := o.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !st.ErrorFlag {
		t.Fatal("ErrorFlag = false, want true for guest retrieval")
	}
	if len(generator.reqs) != 0 {
		t.Errorf("generator calls = %d, want 0 after the abort", len(generator.reqs))
	}
	if verifier.calls != 0 {
		t.Errorf("verifier calls = %d, want 0 on an aborted turn", verifier.calls)
	}
	if !st.ClarificationAttempted {
		t.Error("ClarificationAttempted = false, want true on an aborted turn")
	}
	if st.Response != "Could you sign in first?" {
		t.Errorf("Response = %q, want the clarification question", st.Response)
	}
	if len(st.ConversationHistory) != 2 {
		t.Errorf("history = %d entries, want the turn recorded anyway", len(st.ConversationHistory))
	}
}

func TestOrchestratorClarifiesOnFailedVerification(t *testing.T) {
	verifier := &stubVerifier{votes: []bool{false, false, false}}
	o := New(Config{
		Detector:   &stubDetector{language: "en"},
		Classifier: &stubClassifier{intent: "generic_smalltalk"},
		Generator:  &stubGenerator{reply: "Hi!"},
		Verifier:   verifier,
		Clarifier:  &stubClarifier{contextual: "Can you rephrase that?"},
		Knowledge:  knowledge.NewTopicStore(),
		Actions:    newMemoryBackend(),
	})

	st := o.NewTurn("u1", "s1", "hello folks")
	if err := o.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if verifier.calls != 3 {
		t.Errorf("verifier calls = %d, want 3", verifier.calls)
	}
	if !st.ErrorFlag {
		t.Error("ErrorFlag = false, want true after an invalid verdict")
	}
	if st.Response != "Can you rephrase that?" {
		t.Errorf("Response = %q, want the clarification question", st.Response)
	}
}

func TestOrchestratorPivotRestoresInput(t *testing.T) {
	classifier := &stubClassifier{intent: "cost_estimation"}
	translator := &stubTranslator{prefix: "EN:"}
	o := New(Config{
		Detector:   &stubDetector{language: "it"},
		Classifier: classifier,
		Translator: translator,
		Verifier:   &stubVerifier{votes: []bool{true, true, true}},
		Clarifier:  &stubClarifier{},
		Knowledge:  knowledge.NewTopicStore(),
		Actions:    newMemoryBackend(),
	})

	const input = "Vorrei un preventivo"
	st := o.NewTurn("u1", "s1", input)
	if err := o.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(classifier.inputs) != 1 || classifier.inputs[0] != "EN:"+input {
		t.Errorf("classifier saw %v, want the pivoted input", classifier.inputs)
	}
	if st.Input != input {
		t.Errorf("Input = %q, want restored to the original", st.Input)
	}
	if len(translator.calls) == 0 || translator.calls[0] != "en|"+input {
		t.Errorf("translator calls = %v, want the pivot to English first", translator.calls)
	}
	if st.ConversationHistory[0].Content != input {
		t.Errorf("history[0] = %q, want the original input", st.ConversationHistory[0].Content)
	}
}

func TestOrchestratorDefaultsWhenUnconfigured(t *testing.T) {
	o := New(Config{Actions: newMemoryBackend()})

	st := o.NewTurn("u1", "s1", "hello")
	if err := o.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if st.Language != "en" {
		t.Errorf("Language = %q, want the default %q", st.Language, "en")
	}
	if st.Intent != "generic_smalltalk" || st.Confidence != 1.0 {
		t.Errorf("intent = (%q, %v), want the rule guess inherited at 1.0", st.Intent, st.Confidence)
	}
	if st.Response != conservativeReply {
		t.Errorf("Response = %q, want the conservative fallback", st.Response)
	}
	if st.ClarificationAttempted {
		t.Error("ClarificationAttempted = true, want false when intent resolved")
	}
}

func TestOrchestratorEmitsStepSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	defer otel.SetTracerProvider(prev)

	o := New(Config{
		Detector:   &stubDetector{language: "en"},
		Classifier: &stubClassifier{intent: "generic_smalltalk"},
		Generator:  &stubGenerator{reply: "Hi!"},
		Verifier:   &stubVerifier{votes: []bool{true, true, true}},
		Clarifier:  &stubClarifier{},
		Knowledge:  knowledge.NewTopicStore(),
		Actions:    newMemoryBackend(),
	})

	st := o.NewTurn("u1", "s1", "hello there")
	if err := o.Run(context.Background(), st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	names := make(map[string]bool)
	for _, span := range recorder.Ended() {
		names[span.Name()] = true
	}
	for _, want := range []string{"pipeline.language", "pipeline.intent", "pipeline.respond"} {
		if !names[want] {
			t.Errorf("no %q span recorded, got %v", want, names)
		}
	}
}

func TestOrchestratorNewTurnAppliesCaps(t *testing.T) {
	o := New(Config{
		Caps:    Caps{History: 2, Documents: 10, Actions: 20},
		Actions: newMemoryBackend(),
	})

	st := o.NewTurn("u1", "s1", "hi")
	for i := 0; i < 5; i++ {
		st.AddHistory(message.RoleUser, "x")
	}
	if len(st.ConversationHistory) != 2 {
		t.Errorf("history = %d entries, want capped at 2", len(st.ConversationHistory))
	}
}
