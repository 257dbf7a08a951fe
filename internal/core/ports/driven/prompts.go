package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible
	// default or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem is the system prompt for answering questions over
	// retrieved document sections. This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser wraps the question and packed context for the LLM.
	// The template expects %s (question) and %s (sources) placeholders.
	PromptAnswerUser = "answer_user"

	// PromptNoResults is the canned reply returned when retrieval finds no
	// sections above the similarity threshold. No format placeholders.
	PromptNoResults = "no_results"
)
