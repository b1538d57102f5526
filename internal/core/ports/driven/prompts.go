package driven

// Prompt names used by answer synthesis.
const (
	// PromptAnswerSystem constrains the LLM to the supplied documents.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser frames the question and context. Placeholders: %s context, %s question.
	PromptAnswerUser = "answer_user"
)

// PromptStore loads prompt templates, falling back to built-in defaults.
type PromptStore interface {
	Load(name string) (string, error)
}
