package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// multipartOverhead leaves room for form boundaries around the file part.
const multipartOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ports.Document.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toDocumentList(docs))
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ports.Document.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toDocumentResponse(doc, true))
}

func (s *Server) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.ports.Document.Chunks(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]chunkResponse, len(chunks))
	for i := range chunks {
		out[i] = toChunkResponse(&chunks[i])
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, domain.ErrFileTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("%s: %d bytes exceeds %d", domain.ErrFileTooLarge, header.Size, s.maxUpload))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	doc, err := s.ports.Document.Upload(r.Context(), &domain.RawDocument{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Content:  content,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toDocumentResponse(doc, false))
}

func (s *Server) handleAutoAcquire(w http.ResponseWriter, r *http.Request) {
	var req acquireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	docs, err := s.ports.Document.AcquireFromWeb(r.Context(), req.Query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toDocumentList(docs))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Document.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if err := domain.CheckRetrievalLimit(req.Limit); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.ports.Retrieval.Retrieve(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]searchResultResponse, len(results))
	for i := range results {
		out[i] = searchResultResponse{
			Chunk:      toChunkResponse(&results[i].Chunk),
			Document:   toDocumentResponse(&results[i].Document, false),
			Similarity: results[i].Similarity,
		}
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.ports.Chat == nil || !s.ports.Chat.Available() {
		writeServiceError(w, domain.ErrLLMUnavailable)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	last := req.Messages[len(req.Messages)-1]
	if domain.Role(last.Role) != domain.RoleUser || strings.TrimSpace(last.Content) == "" {
		writeError(w, http.StatusBadRequest, "last message must be a non-empty user message")
		return
	}

	history := make([]domain.ChatMessage, 0, len(req.Messages)-1)
	for _, m := range req.Messages[:len(req.Messages)-1] {
		history = append(history, domain.ChatMessage{Role: domain.Role(m.Role), Content: m.Content})
	}

	reply, err := s.ports.Chat.Ask(r.Context(), history, last.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := chatResponse{
		Content:  reply.Content,
		Grounded: reply.Grounded,
		Sources:  make([]sourceResponse, len(reply.Sources)),
	}
	for i, src := range reply.Sources {
		resp.Sources[i] = sourceResponse{
			DocumentID: src.DocumentID,
			Filename:   src.Filename,
			Relevance:  src.Relevance,
			FileType:   src.FileType.String(),
			URL:        src.URL,
		}
	}
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ports.Document.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, statsResponse{
		DocumentsCount:  stats.Documents,
		ProcessedCount:  stats.Processed,
		FailedCount:     stats.Failed,
		ProcessingCount: stats.Processing,
		ChunksCount:     stats.Chunks,
		TotalSizeBytes:  stats.TotalSizeBytes,
		TotalSizeMB:     fmt.Sprintf("%.1f", stats.TotalSizeMB()),
		Status:          "active",
	})
}

func toChunkResponse(c *domain.VectorChunk) chunkResponse {
	return chunkResponse{
		ID:         c.ID,
		Content:    c.Content,
		StartIndex: c.StartIndex,
		EndIndex:   c.EndIndex,
		Position:   c.Position,
		Embedded:   domain.Rankable(c.Embedding),
	}
}
