package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

var _ driven.LLMBackend = (*MockLLMBackend)(nil)

// MockLLMBackend records requests and answers through GenerateFn.
// Without GenerateFn it echoes a fixed text reply, and structured calls decline.
type MockLLMBackend struct {
	mu       sync.Mutex
	name     string
	requests []*domain.GenerateRequest

	GenerateFn func(req *domain.GenerateRequest) (*domain.GenerateResult, error)
}

// NewMockLLMBackend creates a mock backend registered under name
func NewMockLLMBackend(name string) *MockLLMBackend {
	return &MockLLMBackend{name: name}
}

func (m *MockLLMBackend) Name() string {
	return m.name
}

func (m *MockLLMBackend) Model() string {
	return "mock-" + m.name
}

func (m *MockLLMBackend) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		res, err := m.GenerateFn(req)
		if res != nil && res.Backend == "" {
			res.Backend = m.name
		}
		return res, err
	}
	if req.Mode == domain.ModeStructured {
		return &domain.GenerateResult{Backend: m.name, Model: m.Model(), Declined: true}, nil
	}
	return &domain.GenerateResult{Backend: m.name, Model: m.Model(), Text: "mock answer"}, nil
}

func (m *MockLLMBackend) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMBackend) Close() error {
	return nil
}

// Requests returns a copy of recorded requests
func (m *MockLLMBackend) Requests() []*domain.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.GenerateRequest(nil), m.requests...)
}

// RequestsByMode returns recorded requests of the given mode
func (m *MockLLMBackend) RequestsByMode(mode domain.GenerationMode) []*domain.GenerateRequest {
	var out []*domain.GenerateRequest
	for _, r := range m.Requests() {
		if r.Mode == mode {
			out = append(out, r)
		}
	}
	return out
}
