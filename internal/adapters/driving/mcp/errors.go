// Package mcp provides an MCP (Model Context Protocol) server adapter for ragdesk.
// It lets AI assistants retrieve context from the knowledge base and ask
// grounded questions.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
