package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// Chat completion parameters.
const (
	ChatTemperature = 0.7
	ChatMaxTokens   = 2000
)

// ChatService answers questions with knowledge-base context.
type ChatService struct {
	retrieval    driving.RetrievalService
	llm          driven.LLMService
	prompts      driven.PromptStore
	historyLimit int
}

// NewChatService creates a chat service. llm may be nil, in which case
// Ask fails with ErrLLMUnavailable.
func NewChatService(
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	historyLimit int,
) *ChatService {
	if historyLimit < 0 {
		historyLimit = 0
	}
	return &ChatService{
		retrieval:    retrieval,
		llm:          llm,
		prompts:      prompts,
		historyLimit: historyLimit,
	}
}

// Available reports whether a chat model is configured.
func (s *ChatService) Available() bool {
	return s.llm != nil
}

// Ask answers message given prior history. Retrieval failures never fail
// the call; the reply is then marked ungrounded.
func (s *ChatService) Ask(ctx context.Context, history []domain.ChatMessage, message string) (*domain.ChatReply, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}

	logger.Section("Chat")
	results := s.retrieval.RetrieveContext(ctx, message, 0)
	logger.Debug("Retrieved %d context blocks", len(results))

	messages := make([]domain.ChatMessage, 0, s.historyLimit+2)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: s.systemPrompt(s.retrieval.FormatContext(results)),
	})
	messages = append(messages, trimHistory(history, s.historyLimit)...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: message})

	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   ChatMaxTokens,
		Temperature: ChatTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	return &domain.ChatReply{
		Content:  answer,
		Sources:  s.retrieval.ExtractSources(results),
		Grounded: len(results) > 0,
	}, nil
}

func (s *ChatService) systemPrompt(contextBlock string) string {
	if contextBlock == "" {
		contextBlock = s.loadPrompt(driven.PromptChatNoContext, "")
	}
	template := s.loadPrompt(driven.PromptChatSystem, "%s")
	// The template is user-editable, so it is never used as a format string.
	return strings.TrimSpace(strings.Replace(template, "%s", contextBlock, 1))
}

func (s *ChatService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil {
		logger.Warn("chat: load prompt %s: %v", name, err)
		return fallback
	}
	return prompt
}

// trimHistory keeps the last limit user and assistant messages.
func trimHistory(history []domain.ChatMessage, limit int) []domain.ChatMessage {
	kept := make([]domain.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role == domain.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}
