package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure TEIReranker implements Reranker
var _ driven.Reranker = (*TEIReranker)(nil)

// TEIReranker scores (query, passage) pairs with a cross-encoder served by
// Text Embeddings Inference (POST /rerank).
type TEIReranker struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
	Truncate  bool     `json:"truncate"`
}

type rerankItem struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewTEIReranker creates a reranker for the given endpoint
func NewTEIReranker(baseURL, model, apiKey string) (*TEIReranker, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("reranker base URL is required")
	}
	if model == "" {
		model = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	}
	return &TEIReranker{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Score returns one relevance score per text, aligned with the input order.
// Raw logits are requested so scores are comparable across calls.
func (r *TEIReranker) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var items []rerankItem
	req := rerankRequest{Query: query, Texts: texts, RawScores: true, Truncate: true}
	if err := postJSON(ctx, r.client, r.baseURL+"/rerank", r.apiKey, req, &items); err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, item := range items {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("rerank: index %d out of range", item.Index)
		}
		scores[item.Index] = item.Score
		seen[item.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("rerank: no score for text %d", i)
		}
	}
	return scores, nil
}

// Model returns the cross-encoder name
func (r *TEIReranker) Model() string {
	return r.model
}

// HealthCheck calls the TEI /health endpoint
func (r *TEIReranker) HealthCheck(ctx context.Context) error {
	return getOK(ctx, r.client, r.baseURL+"/health")
}
