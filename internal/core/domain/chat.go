package domain

// Role identifies the author of a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    Role
	Content string
}

// ChatReply is the grounded answer returned to the caller.
type ChatReply struct {
	// Content is the model's answer.
	Content string

	// Sources are the documents that supplied context.
	Sources []SourceCitation

	// Grounded is false when no context could be retrieved.
	Grounded bool
}
