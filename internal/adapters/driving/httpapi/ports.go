// Package httpapi exposes the knowledge base over a JSON HTTP API.
package httpapi

import (
	"errors"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// ErrMissingDocumentService is returned when the document service is nil.
var ErrMissingDocumentService = errors.New("httpapi: document service is required")

// ErrMissingRetrievalService is returned when the retrieval service is nil.
var ErrMissingRetrievalService = errors.New("httpapi: retrieval service is required")

// Ports holds the driving ports the API delegates to.
// Chat is optional; without it /api/chat answers 503.
type Ports struct {
	Document  driving.DocumentService
	Retrieval driving.RetrievalService
	Chat      driving.ChatService
}

// Validate checks that required ports are set.
func (p *Ports) Validate() error {
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
