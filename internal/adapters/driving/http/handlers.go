package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports each dependency checked by /ready
// @Description Readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// DocumentListResponse is a page of documents
// @Description Paginated document list
type DocumentListResponse struct {
	Documents []*domain.Document `json:"documents"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// SessionMessagesResponse is the stored history of one session
// @Description Session history
type SessionMessagesResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
}

// ingestJSONRequest is the JSON form of an ingestion request
type ingestJSONRequest struct {
	Strategy  domain.ChunkStrategy `json:"strategy"`
	Documents []struct {
		Filename string `json:"filename"`
		Text     string `json:"text"`
	} `json:"documents"`
}

const readyCheckTimeout = 3 * time.Second

var errUploadTooLarge = errors.New("upload too large")

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings PostgreSQL, Redis and the vector index
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK

	for name, p := range s.checks {
		if p == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "api description unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

// Chat endpoints

// handleChat godoc
// @Summary      Chat turn
// @Description  Answers from ingested documents or advances an interview booking. Internal failures produce an apology reply, not an error.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.ChatRequest  true  "Chat turn"
// @Success      200      {object}  domain.ChatResponse
// @Failure      400      {object}  ErrorResponse  "Missing session_id or message, or unknown model"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Router       /chat [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.chatService.Chat(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "chat failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetSessionMessages godoc
// @Summary      Session history
// @Description  Returns the bounded message window of a session, oldest first. Unknown sessions return an empty list.
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Session ID"
// @Param        limit  query     int     false  "Maximum messages"
// @Success      200    {object}  SessionMessagesResponse
// @Failure      400    {object}  ErrorResponse  "Invalid session ID or limit"
// @Failure      401    {object}  ErrorResponse  "Unauthorized"
// @Failure      500    {object}  ErrorResponse  "Internal server error"
// @Router       /sessions/{id}/messages [get]
func (s *Server) handleGetSessionMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := s.chatService.History(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, err, "failed to load history")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	writeJSON(w, http.StatusOK, SessionMessagesResponse{SessionID: id, Messages: messages})
}

// handleSearch godoc
// @Summary      Search documents
// @Description  Runs hybrid BM25 + vector retrieval fused with reciprocal rank fusion, optionally reranked.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.SearchRequest  true  "Search query"
// @Success      200      {object}  domain.Retrieval
// @Failure      400      {object}  ErrorResponse  "Invalid request or missing query"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      503      {object}  ErrorResponse  "Both indexes unavailable"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.searchService.Search(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Ingestion endpoints

// handleIngest godoc
// @Summary      Ingest documents
// @Description  Uploads documents (multipart field "files", PDF or text) or JSON text documents, chunks them with the selected strategy and indexes them. Each document reports its own result.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        files     formData  file    false  "Documents to ingest"
// @Param        strategy  formData  string  false  "Chunking strategy (fixed or semantic)"
// @Success      200       {object}  domain.IngestResponse
// @Failure      400       {object}  ErrorResponse  "No documents or unknown strategy"
// @Failure      401       {object}  ErrorResponse  "Unauthorized"
// @Failure      413       {object}  ErrorResponse  "Upload too large"
// @Router       /ingest [post]
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var (
		req *domain.IngestRequest
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, err = s.parseMultipartIngest(w, r)
	} else {
		req, err = parseJSONIngest(r)
	}
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.ingestService.Ingest(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "ingest failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseMultipartIngest(w http.ResponseWriter, r *http.Request) (*domain.IngestRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, errUploadTooLarge
		}
		return nil, errors.New("invalid multipart body")
	}

	req := &domain.IngestRequest{
		Strategy: domain.ChunkStrategy(strings.TrimSpace(r.FormValue("strategy"))),
	}
	for _, field := range []string{"files", "file"} {
		for _, fh := range r.MultipartForm.File[field] {
			f, err := fh.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to read %s", fh.Filename)
			}
			content, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read %s", fh.Filename)
			}
			req.Documents = append(req.Documents, domain.IngestDocument{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Content:     content,
			})
		}
	}
	return req, nil
}

func parseJSONIngest(r *http.Request) (*domain.IngestRequest, error) {
	var body ingestJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errors.New("invalid request body")
	}
	req := &domain.IngestRequest{Strategy: body.Strategy}
	for _, d := range body.Documents {
		req.Documents = append(req.Documents, domain.IngestDocument{
			Filename: d.Filename,
			Text:     d.Text,
		})
	}
	return req, nil
}

// Document endpoints

// handleListDocuments godoc
// @Summary      List documents
// @Description  Lists ingested documents in ingestion order
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (default 50)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  DocumentListResponse
// @Failure      400     {object}  ErrorResponse  "Invalid pagination"
// @Failure      401     {object}  ErrorResponse  "Unauthorized"
// @Failure      500     {object}  ErrorResponse  "Internal server error"
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, err := s.docService.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, "failed to list documents")
		return
	}
	total, err := s.docService.Count(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to count documents")
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}

	writeJSON(w, http.StatusOK, DocumentListResponse{
		Documents: docs,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Get a document by ID
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleGetDocumentChunks godoc
// @Summary      Get document chunks
// @Description  Get a document with its chunks in position order
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentWithChunks
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id}/chunks [get]
func (s *Server) handleGetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.GetWithChunks(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete document
// @Description  Removes a document, its chunks and its entries in both indexes
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err, "failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// AI endpoints

// handleGetAIStatus godoc
// @Summary      Get AI status
// @Description  Reports the embedding service, reranker and LLM backends currently installed
// @Tags         AI
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driving.AIStatus
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      503  {object}  ErrorResponse  "AI services not configured"
// @Router       /ai/status [get]
func (s *Server) handleGetAIStatus(w http.ResponseWriter, r *http.Request) {
	if s.aiService == nil {
		writeError(w, http.StatusServiceUnavailable, "ai services not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.aiService.Status())
}

// handleTestAIConnection godoc
// @Summary      Test AI connection
// @Description  Health-checks every installed AI service
// @Tags         AI
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      503  {object}  ErrorResponse  "AI service unavailable"
// @Router       /ai/test [post]
func (s *Server) handleTestAIConnection(w http.ResponseWriter, r *http.Request) {
	if s.aiService == nil {
		writeError(w, http.StatusServiceUnavailable, "ai services not configured")
		return
	}
	if err := s.aiService.TestConnection(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "connected"})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps domain errors to status codes. Client errors carry
// the error text; server errors only the fallback message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrIndexUnavailable), errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, fallback)
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}
