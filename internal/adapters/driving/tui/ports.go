// Package tui provides an interactive terminal chat for ragdesk.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// Retrieval powers the search view.
	Retrieval driving.RetrievalService

	// Document lists and deletes documents. Optional.
	Document driving.DocumentService
}

// Validate ensures required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
