package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the question to find knowledge-base context for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of documents to return (default 5, at most 100)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Context string         `json:"context"`
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
}

// ResultOutput represents a single retrieved chunk.
type ResultOutput struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	URL        string `json:"url,omitempty"`
	Relevance  int    `json:"relevance"`
	Content    string `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the knowledge base"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string         `json:"answer"`
	Grounded bool           `json:"grounded"`
	Sources  []SourceOutput `json:"sources"`
}

// SourceOutput is a citation of a document used in an answer.
type SourceOutput struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Relevance  int    `json:"relevance"`
	URL        string `json:"url,omitempty"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Status string `json:"status,omitempty" jsonschema:"only list documents with this status: processing, processed or failed"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises a document.
type DocumentOutput struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	FileType  string `json:"file_type"`
	Status    string `json:"status"`
	Source    string `json:"source"`
	URL       string `json:"url,omitempty"`
	Chunks    int    `json:"chunks"`
	Embedded  int    `json:"embedded"`
	LastError string `json:"last_error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the most relevant knowledge-base passages for a question",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the knowledge base as context",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List documents in the knowledge base with their processing status",
	}, s.handleListDocuments)
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RetrieveOutput{}, errors.New("query is required")
	}
	if err := domain.CheckRetrievalLimit(input.Limit); err != nil {
		return nil, RetrieveOutput{}, err
	}

	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Context: s.ports.Retrieval.FormatContext(results),
		Results: make([]ResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = ResultOutput{
			DocumentID: results[i].Document.ID,
			Filename:   results[i].Document.Filename,
			URL:        results[i].Document.URL,
			Relevance:  domain.Relevance(results[i].Similarity),
			Content:    results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Chat == nil || !s.ports.Chat.Available() {
		return nil, AskOutput{}, domain.ErrLLMUnavailable
	}

	reply, err := s.ports.Chat.Ask(ctx, nil, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:   reply.Content,
		Grounded: reply.Grounded,
		Sources:  make([]SourceOutput, len(reply.Sources)),
	}
	for i, src := range reply.Sources {
		output.Sources[i] = SourceOutput{
			DocumentID: src.DocumentID,
			Filename:   src.Filename,
			Relevance:  src.Relevance,
			URL:        src.URL,
		}
	}

	return nil, output, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Document == nil {
		return nil, ListDocumentsOutput{Documents: []DocumentOutput{}}, nil
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{Documents: make([]DocumentOutput, 0, len(docs))}
	for i := range docs {
		if input.Status != "" && string(docs[i].Status) != input.Status {
			continue
		}
		output.Documents = append(output.Documents, toDocumentOutput(&docs[i]))
	}
	output.Count = len(output.Documents)

	return nil, output, nil
}

func toDocumentOutput(doc *domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:        doc.ID,
		Filename:  doc.Filename,
		FileType:  doc.FileType.String(),
		Status:    doc.Status.String(),
		Source:    doc.Source.String(),
		URL:       doc.URL,
		Chunks:    doc.ChunkCount,
		Embedded:  doc.EmbeddedCount,
		LastError: doc.LastError,
	}
}
