package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// Mock services for testing

type mockAuthService struct {
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) IssueToken(ctx context.Context, subject string, scopes []domain.Scope) (string, error) {
	return "token", nil
}

type mockChatService struct {
	chatFn    func(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error)
	historyFn func(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
}

func (m *mockChatService) Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChatService) History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, sessionID, limit)
	}
	return nil, nil
}

type mockIngestService struct {
	ingestFn func(ctx context.Context, req *domain.IngestRequest) (*domain.IngestResponse, error)
}

func (m *mockIngestService) Ingest(ctx context.Context, req *domain.IngestRequest) (*domain.IngestResponse, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockIngestService) Reindex(ctx context.Context, documentID string) error {
	return nil
}

type mockSearchService struct {
	searchFn func(ctx context.Context, req *domain.SearchRequest) (*domain.Retrieval, error)
}

func (m *mockSearchService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.Retrieval, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockDocumentService struct {
	docs map[string]*domain.Document
}

func newMockDocumentService(docs ...*domain.Document) *mockDocumentService {
	m := &mockDocumentService{docs: make(map[string]*domain.Document)}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *mockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("failed to get document: %w", domain.ErrNotFound)
	}
	return d, nil
}

func (m *mockDocumentService) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	chunks := make([]*domain.Chunk, d.ChunkCount)
	for i := range chunks {
		chunks[i] = &domain.Chunk{ID: fmt.Sprintf("%s-%d", id, i), DocumentID: id, Position: i}
	}
	return &domain.DocumentWithChunks{Document: d, Chunks: chunks}, nil
}

func (m *mockDocumentService) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	var out []*domain.Document
	for _, d := range m.docs {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDocumentService) Count(ctx context.Context) (int, error) {
	return len(m.docs), nil
}

func (m *mockDocumentService) Delete(ctx context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

type mockAIService struct {
	status  *driving.AIStatus
	testErr error
}

func (m *mockAIService) Status() *driving.AIStatus {
	return m.status
}

func (m *mockAIService) TestConnection(ctx context.Context) error {
	return m.testErr
}

type testServices struct {
	chat   *mockChatService
	ingest *mockIngestService
	search *mockSearchService
	docs   *mockDocumentService
	ai     *mockAIService
}

func newTestServer(t *testing.T, checks map[string]Pinger) (*Server, *testServices) {
	t.Helper()
	ts := &testServices{
		chat:   &mockChatService{},
		ingest: &mockIngestService{},
		search: &mockSearchService{},
		docs: newMockDocumentService(&domain.Document{
			ID: "doc-1", Filename: "handbook.pdf", ChunkCount: 2,
		}),
		ai: &mockAIService{status: &driving.AIStatus{DefaultBackend: "remote"}},
	}
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	server := NewServer(cfg, Services{
		Chat:      ts.chat,
		Ingest:    ts.ingest,
		Search:    ts.search,
		Documents: ts.docs,
		AI:        ts.ai,
	}, checks, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return server, ts
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthHandler(t *testing.T) {
	server, _ := newTestServer(t, nil)
	rr := do(t, server, "GET", "/health", nil, "")

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	var resp StatusResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %s", resp.Status)
	}
}

func TestVersionHandler(t *testing.T) {
	server, _ := newTestServer(t, nil)
	rr := do(t, server, "GET", "/version", nil, "")

	var resp VersionResponse
	decode(t, rr, &resp)
	if resp.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", resp.Version)
	}
}

func TestReadyHandler(t *testing.T) {
	ok := PingFunc(func(ctx context.Context) error { return nil })
	down := PingFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	t.Run("all dependencies up", func(t *testing.T) {
		server, _ := newTestServer(t, map[string]Pinger{"postgres": ok, "redis": ok, "redis-disabled": nil})
		rr := do(t, server, "GET", "/ready", nil, "")
		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
		var resp ReadyResponse
		decode(t, rr, &resp)
		if resp.Checks["postgres"] != "ok" || resp.Checks["redis"] != "ok" {
			t.Errorf("unexpected checks: %v", resp.Checks)
		}
		if _, present := resp.Checks["redis-disabled"]; present {
			t.Error("expected nil check to be skipped")
		}
	})

	t.Run("dependency down", func(t *testing.T) {
		server, _ := newTestServer(t, map[string]Pinger{"postgres": ok, "vector": down})
		rr := do(t, server, "GET", "/ready", nil, "")
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", rr.Code)
		}
		var resp ReadyResponse
		decode(t, rr, &resp)
		if resp.Status != "not ready" || resp.Checks["vector"] != "connection refused" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})
}

func TestSwaggerDoc(t *testing.T) {
	server, _ := newTestServer(t, nil)
	rr := do(t, server, "GET", "/swagger/doc.json", nil, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var doc map[string]any
	decode(t, rr, &doc)
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		t.Fatal("expected paths in api description")
	}
	for _, p := range []string{"/chat", "/ingest", "/search"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("expected path %s in api description", p)
		}
	}
}

func TestHandleChat(t *testing.T) {
	server, ts := newTestServer(t, nil)
	bookingID := "bk-1"
	ts.chat.chatFn = func(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
		if req.SessionID != "s1" || req.Model != "local" {
			t.Errorf("unexpected request: %+v", req)
		}
		return &domain.ChatResponse{
			Reply:          "Booked.",
			Sources:        []domain.SourceChunk{},
			BookingCreated: true,
			BookingID:      &bookingID,
			State:          domain.BookingStateComplete,
		}, nil
	}

	body := `{"session_id":"s1","message":"yes","model":"local"}`
	rr := do(t, server, "POST", "/api/v1/chat", strings.NewReader(body), "application/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var raw map[string]any
	decode(t, rr, &raw)
	if raw["booking_id"] != "bk-1" || raw["booking_created"] != true {
		t.Errorf("unexpected response: %v", raw)
	}
	if sources, ok := raw["sources"].([]any); !ok || len(sources) != 0 {
		t.Errorf("expected empty sources list, got %v", raw["sources"])
	}
}

func TestHandleChat_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"malformed body", "{", nil, http.StatusBadRequest},
		{"invalid input", `{"session_id":"","message":"hi"}`, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{"internal", `{"session_id":"s","message":"hi"}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, ts := newTestServer(t, nil)
			ts.chat.chatFn = func(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
				return nil, tt.err
			}
			rr := do(t, server, "POST", "/api/v1/chat", strings.NewReader(tt.body), "application/json")
			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(rr.Body.String(), "boom") {
				t.Error("internal error text leaked to client")
			}
		})
	}
}

func TestHandleGetSessionMessages(t *testing.T) {
	server, ts := newTestServer(t, nil)
	ts.chat.historyFn = func(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
		if sessionID == "unknown" {
			return nil, nil
		}
		if limit != 2 {
			t.Errorf("expected limit 2, got %d", limit)
		}
		return []domain.Message{{Role: domain.RoleUser, Content: "hi"}, {Role: domain.RoleAssistant, Content: "hello"}}, nil
	}

	rr := do(t, server, "GET", "/api/v1/sessions/s1/messages?limit=2", nil, "")
	var resp SessionMessagesResponse
	decode(t, rr, &resp)
	if resp.SessionID != "s1" || len(resp.Messages) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}

	rr = do(t, server, "GET", "/api/v1/sessions/unknown/messages", nil, "")
	if !strings.Contains(rr.Body.String(), `"messages":[]`) {
		t.Errorf("expected empty list for unknown session, got %s", rr.Body.String())
	}

	rr = do(t, server, "GET", "/api/v1/sessions/s1/messages?limit=-1", nil, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for negative limit, got %d", rr.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	server, ts := newTestServer(t, nil)
	ts.search.searchFn = func(ctx context.Context, req *domain.SearchRequest) (*domain.Retrieval, error) {
		if !req.Rerank || req.TopK != 3 {
			t.Errorf("unexpected request: %+v", req)
		}
		return &domain.Retrieval{Query: req.Query, Mode: domain.SearchModeTextOnly, Results: []*domain.SearchResult{}}, nil
	}

	rr := do(t, server, "POST", "/api/v1/search", strings.NewReader(`{"query":"leave","top_k":3,"rerank":true}`), "application/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp domain.Retrieval
	decode(t, rr, &resp)
	if resp.Mode != domain.SearchModeTextOnly {
		t.Errorf("expected text mode, got %s", resp.Mode)
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	server, ts := newTestServer(t, nil)
	ts.search.searchFn = func(ctx context.Context, req *domain.SearchRequest) (*domain.Retrieval, error) {
		return nil, fmt.Errorf("%w: lexical: down; vector: down", domain.ErrIndexUnavailable)
	}

	rr := do(t, server, "POST", "/api/v1/search", strings.NewReader(`{"query":"  "}`), "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for empty query, got %d", rr.Code)
	}

	rr = do(t, server, "POST", "/api/v1/search", strings.NewReader(`{"query":"leave"}`), "application/json")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 when both indexes are down, got %d", rr.Code)
	}
}

func TestHandleIngest_JSON(t *testing.T) {
	server, ts := newTestServer(t, nil)
	var got *domain.IngestRequest
	ts.ingest.ingestFn = func(ctx context.Context, req *domain.IngestRequest) (*domain.IngestResponse, error) {
		got = req
		return &domain.IngestResponse{
			Strategy:  req.Strategy,
			Results:   []domain.IngestResult{{Filename: "a.md", Success: true, Chunks: 2}},
			Succeeded: 1,
		}, nil
	}

	body := `{"strategy":"semantic","documents":[{"filename":"a.md","text":"Annual leave is 25 days."}]}`
	rr := do(t, server, "POST", "/api/v1/ingest", strings.NewReader(body), "application/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Strategy != domain.ChunkStrategySemantic || len(got.Documents) != 1 || got.Documents[0].Text == "" {
		t.Errorf("unexpected ingest request: %+v", got)
	}
}

func TestHandleIngest_Multipart(t *testing.T) {
	server, ts := newTestServer(t, nil)
	var got *domain.IngestRequest
	ts.ingest.ingestFn = func(ctx context.Context, req *domain.IngestRequest) (*domain.IngestResponse, error) {
		got = req
		return &domain.IngestResponse{Strategy: domain.ChunkStrategyFixed}, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range map[string]string{"one.txt": "first", "two.md": "second"} {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte(content))
	}
	_ = mw.WriteField("strategy", "fixed")
	_ = mw.Close()

	rr := do(t, server, "POST", "/api/v1/ingest", &buf, mw.FormDataContentType())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Strategy != domain.ChunkStrategyFixed || len(got.Documents) != 2 {
		t.Fatalf("unexpected ingest request: %+v", got)
	}
	for _, d := range got.Documents {
		if len(d.Content) == 0 {
			t.Errorf("expected content for %s", d.Filename)
		}
	}
}

func TestHandleIngest_Errors(t *testing.T) {
	server, ts := newTestServer(t, nil)
	ts.ingest.ingestFn = func(ctx context.Context, req *domain.IngestRequest) (*domain.IngestResponse, error) {
		return nil, fmt.Errorf("%w: no documents", domain.ErrInvalidInput)
	}

	rr := do(t, server, "POST", "/api/v1/ingest", strings.NewReader("not json"), "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for malformed body, got %d", rr.Code)
	}

	rr = do(t, server, "POST", "/api/v1/ingest", strings.NewReader(`{"documents":[]}`), "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for no documents, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "no documents") {
		t.Errorf("expected reason in body, got %s", rr.Body.String())
	}
}

func TestHandleIngest_TooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUploadBytes = 512
	server := NewServer(cfg, Services{Ingest: &mockIngestService{}}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("files", "big.txt")
	_, _ = fw.Write(bytes.Repeat([]byte("x"), 4096))
	_ = mw.Close()

	rr := do(t, server, "POST", "/api/v1/ingest", &buf, mw.FormDataContentType())
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", rr.Code)
	}
}

func TestDocumentHandlers(t *testing.T) {
	server, ts := newTestServer(t, nil)

	rr := do(t, server, "GET", "/api/v1/documents?limit=10", nil, "")
	var list DocumentListResponse
	decode(t, rr, &list)
	if list.Total != 1 || len(list.Documents) != 1 || list.Limit != 10 {
		t.Errorf("unexpected list: %+v", list)
	}

	rr = do(t, server, "GET", "/api/v1/documents/doc-1", nil, "")
	var doc domain.Document
	decode(t, rr, &doc)
	if doc.Filename != "handbook.pdf" {
		t.Errorf("unexpected document: %+v", doc)
	}

	rr = do(t, server, "GET", "/api/v1/documents/doc-1/chunks", nil, "")
	var withChunks domain.DocumentWithChunks
	decode(t, rr, &withChunks)
	if len(withChunks.Chunks) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(withChunks.Chunks))
	}

	rr = do(t, server, "DELETE", "/api/v1/documents/doc-1", nil, "")
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if _, ok := ts.docs.docs["doc-1"]; ok {
		t.Error("expected document to be deleted")
	}

	rr = do(t, server, "GET", "/api/v1/documents/doc-1", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
	rr = do(t, server, "DELETE", "/api/v1/documents/doc-1", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 on second delete, got %d", rr.Code)
	}
	rr = do(t, server, "GET", "/api/v1/documents?offset=abc", nil, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad offset, got %d", rr.Code)
	}
}

func TestAIHandlers(t *testing.T) {
	server, ts := newTestServer(t, nil)

	rr := do(t, server, "GET", "/api/v1/ai/status", nil, "")
	var status driving.AIStatus
	decode(t, rr, &status)
	if status.DefaultBackend != "remote" {
		t.Errorf("expected default backend remote, got %s", status.DefaultBackend)
	}

	rr = do(t, server, "POST", "/api/v1/ai/test", nil, "")
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	ts.ai.testErr = errors.New("embedding: connection refused")
	rr = do(t, server, "POST", "/api/v1/ai/test", nil, "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestRoutesRequireScope(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthEnabled = true
	server := NewServer(cfg, Services{
		Chat:      &mockChatService{},
		Documents: newMockDocumentService(),
		Auth:      scopedAuth(domain.ScopeChat),
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected chat-only token to be refused on documents, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/sessions/s1/messages", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected chat token to read history, got %d", rr.Code)
	}

	rr = do(t, server, "GET", "/health", nil, "")
	if rr.Code != http.StatusOK {
		t.Errorf("expected health to be public, got %d", rr.Code)
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrUnsupportedFormat, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{domain.ErrIndexUnavailable, http.StatusServiceUnavailable},
		{domain.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		writeServiceError(rr, tt.err, "failed")
		if rr.Code != tt.want {
			t.Errorf("%v: expected status %d, got %d", tt.err, tt.want, rr.Code)
		}
	}
}
