package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// ChatService answers questions grounded in the knowledge base.
type ChatService interface {
	// Ask answers message given prior history. Retrieval problems never fail
	// the call; the answer is produced ungrounded instead.
	Ask(ctx context.Context, history []domain.ChatMessage, message string) (*domain.ChatReply, error)

	// Available reports whether a chat model is configured.
	Available() bool
}
