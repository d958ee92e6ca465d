// Package qdrant implements the vector index on Qdrant's REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Config configures the Qdrant client
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Index stores chunk vectors in one Qdrant collection with cosine distance.
// Chunk fields travel in the point payload so searches need no extra lookup.
type Index struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// New creates a Qdrant-backed vector index
func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "chunks"
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection when it does not exist yet
func (q *Index) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: invalid vector dimension %d", domain.ErrInvalidInput, dimensions)
	}

	status, err := q.do(ctx, http.MethodGet, q.collectionURL(""), nil, nil)
	if err == nil {
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("qdrant get collection: %w", err)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	if _, err := q.do(ctx, http.MethodPut, q.collectionURL(""), body, nil); err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}

	index := map[string]any{"field_name": "document_id", "field_schema": "keyword"}
	if _, err := q.do(ctx, http.MethodPut, q.collectionURL("/index?wait=true"), index, nil); err != nil {
		return fmt.Errorf("qdrant create payload index: %w", err)
	}
	return nil
}

func (q *Index) Upsert(ctx context.Context, chunks []*domain.Chunk) error {
	points := make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		points = append(points, map[string]any{
			"id":     c.ID,
			"vector": c.Embedding,
			"payload": map[string]any{
				"document_id":  c.DocumentID,
				"document_seq": c.DocumentSeq,
				"filename":     c.Filename,
				"position":     c.Position,
				"start_char":   c.StartChar,
				"end_char":     c.EndChar,
				"content":      c.Content,
			},
		})
	}
	if len(points) == 0 {
		return nil
	}

	body := map[string]any{"points": points}
	if _, err := q.do(ctx, http.MethodPut, q.collectionURL("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

type searchResponse struct {
	Result []struct {
		ID      string       `json:"id"`
		Score   float64      `json:"score"`
		Payload pointPayload `json:"payload"`
	} `json:"result"`
}

type pointPayload struct {
	DocumentID  string `json:"document_id"`
	DocumentSeq int64  `json:"document_seq"`
	Filename    string `json:"filename"`
	Position    int    `json:"position"`
	StartChar   int    `json:"start_char"`
	EndChar     int    `json:"end_char"`
	Content     string `json:"content"`
}

func (q *Index) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		limit = 20
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	var resp searchResponse
	if _, err := q.do(ctx, http.MethodPost, q.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	results := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		p := r.Payload
		results = append(results, domain.ScoredChunk{
			Chunk: &domain.Chunk{
				ID:          r.ID,
				DocumentID:  p.DocumentID,
				DocumentSeq: p.DocumentSeq,
				Filename:    p.Filename,
				Position:    p.Position,
				StartChar:   p.StartChar,
				EndChar:     p.EndChar,
				Content:     p.Content,
			},
			Score: r.Score,
		})
	}
	return results, nil
}

func (q *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	if _, err := q.do(ctx, http.MethodPost, q.collectionURL("/points/delete?wait=true"), body, nil); err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

func (q *Index) Ping(ctx context.Context) error {
	if _, err := q.do(ctx, http.MethodGet, q.url+"/readyz", nil, nil); err != nil {
		return fmt.Errorf("qdrant ping: %w", err)
	}
	return nil
}

func (q *Index) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", q.url, q.collection, suffix)
}

// do sends a JSON request and decodes the response into out when set.
// The HTTP status is returned even on failure.
func (q *Index) do(ctx context.Context, method, url string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, &domain.StatusError{StatusCode: resp.StatusCode, Body: string(msg)}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
