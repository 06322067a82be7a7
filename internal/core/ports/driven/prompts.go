package driven

// Prompt names understood by PromptStore.
const (
	// PromptChatSystem is the assistant instruction. It must contain one
	// %s placeholder that receives the formatted knowledge-base context.
	PromptChatSystem = "chat_system"

	// PromptChatNoContext replaces the context block when retrieval found nothing.
	PromptChatNoContext = "chat_no_context"
)

// PromptStore loads user-customisable prompt templates.
type PromptStore interface {
	// Load returns the template for name, falling back to a built-in default.
	Load(name string) (string, error)
}
