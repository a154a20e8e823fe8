package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptChatSystem is the default system prompt for answering questions.
	// Configured chat.system_prompt takes precedence. No placeholders.
	PromptChatSystem = "chat_system"

	// PromptNoContext is appended to the system prompt when retrieval found nothing.
	// No placeholders.
	PromptNoContext = "no_context"
)
