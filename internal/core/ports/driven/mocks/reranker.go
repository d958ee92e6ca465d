package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

var _ driven.Reranker = (*MockReranker)(nil)

// MockReranker scores by shared lowercase words unless ScoreFn is set
type MockReranker struct {
	mu    sync.Mutex
	calls int

	ScoreFn func(query string, texts []string) ([]float64, error)
}

// NewMockReranker creates a new MockReranker
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

func (m *MockReranker) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.ScoreFn != nil {
		return m.ScoreFn(query, texts)
	}
	words := strings.Fields(strings.ToLower(query))
	scores := make([]float64, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		for _, w := range words {
			if strings.Contains(lower, w) {
				scores[i]++
			}
		}
	}
	return scores, nil
}

func (m *MockReranker) Model() string {
	return "mock-reranker"
}

func (m *MockReranker) HealthCheck(ctx context.Context) error {
	return nil
}

// Calls returns the number of Score invocations
func (m *MockReranker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
