package prompt

import "fmt"

// Names of the built-in templates registered by Defaults.
const (
	PlanSteps        = "plan_steps"
	DetectLanguage   = "detect_language"
	ClassifyIntent   = "classify_intent"
	GenerateReply    = "generate_reply"
	ClarifyContext   = "clarify_context"
	ClarifySimple    = "clarify_simple"
	TranslateText    = "translate_text"
	VerifyReply      = "verify_reply"
	ClassifyDocument = "classify_document"
	EnrichChunk      = "enrich_chunk"
)

var builtins = map[string]string{
	PlanSteps: `You orchestrate a customer assistance pipeline.
Available steps: {{.Steps}}.
Decide which steps to run, in order, for the user message below.
Reply ONLY with JSON: {"reasoning": "...", "sequence": ["step", ...]}
Message: "{{.Input}}"`,

	DetectLanguage: `Detect the language of the following user message.
Reply ONLY with the ISO 639-1 language code (like 'en', 'it', 'fr', 'de').
No explanation, no punctuation, no space.
Message: "{{.Input}}"
Language code:`,

	ClassifyIntent: `Classify the intent of the following user sentence:
Sentence: "{{.Input}}"
Choose and return ONLY ONE of the following categories (no explanation, no punctuation):
{{.Catalog}}
Use 'technical_support_request' if the message contains a clear request for assistance.
Use 'complaint' if the message is primarily a complaint or criticism, even if it mentions a problem.
If unclear, return: unclear`,

	GenerateReply: `You are a customer assistant. Answer in the language "{{.Language}}".
Detected intent: {{.Intent}}
{{.History}}User message: "{{.Input}}"
Answer:`,

	ClarifyContext: `The assistant could not confidently answer the user.
Pipeline reasoning: {{.Reasoning}}
Previous draft reply: {{.Response}}
{{.History}}Write ONE short follow-up question that helps the user restate what they need.
Reply only with the question, in the language of the conversation.`,

	ClarifySimple: `You are an AI assistant that replies in the same language as the user's message (detected language: {{.Language}}).
The user's message was ambiguous and the system could not determine the intent.
Generate ONE short, precise, natural-sounding follow-up question to clarify what the user wants.
The goal is to distinguish between intents such as: {{.Intents}}.
Your response must be ONLY the question, in the same language as the user.

User message: "{{.Input}}"

Clarification question:`,

	TranslateText: `Translate the following text to {{.Target}}.
Return only the translated sentence without explanations.
Text: {{.Text}}
Translated text:`,

	VerifyReply: `Answer: "{{.Response}}"
Question: "{{.Input}}"
Evaluate if the answer is relevant and helpful. Respond only with: TRUE or FALSE.`,

	ClassifyDocument: `Classify the document below into exactly one of these categories: {{.Categories}}.
Reply ONLY with JSON: {"category": "...", "confidence": 0.0}
Filename: {{.Filename}}
Document:
{{.Text}}`,

	EnrichChunk: `Summarize the passage below and propose questions a user could ask about it.
Reply ONLY with JSON: {"chunk_summary": "...", "hypothetical_questions": ["...", ...]}
Passage:
{{.Text}}`,
}

// Defaults returns a Manager preloaded with the built-in conversation templates.
func Defaults() *Manager {
	m := NewManager()
	for name, content := range builtins {
		if err := m.RegisterString(name, content); err != nil {
			panic(fmt.Sprintf("prompt: invalid builtin template %q: %v", name, err))
		}
	}
	return m
}
