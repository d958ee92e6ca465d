package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// mockEmbeddingService is a mock implementation for testing
type mockEmbeddingService struct {
	healthCheckErr error
	closed         bool
}

func (m *mockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 384
}

func (m *mockEmbeddingService) Model() string {
	return "test-model"
}

func (m *mockEmbeddingService) HealthCheck(ctx context.Context) error {
	return m.healthCheckErr
}

func (m *mockEmbeddingService) Close() error {
	m.closed = true
	return nil
}

// mockLLMBackend is a mock implementation for testing
type mockLLMBackend struct {
	name    string
	pingErr error
	closed  bool
}

func (m *mockLLMBackend) Name() string {
	return m.name
}

func (m *mockLLMBackend) Model() string {
	return "test-llm"
}

func (m *mockLLMBackend) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	return &domain.GenerateResult{Backend: m.name}, nil
}

func (m *mockLLMBackend) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockLLMBackend) Close() error {
	m.closed = true
	return nil
}

// mockReranker is a mock implementation for testing
type mockReranker struct {
	healthCheckErr error
}

func (m *mockReranker) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	return make([]float64, len(texts)), nil
}

func (m *mockReranker) Model() string {
	return "test-reranker"
}

func (m *mockReranker) HealthCheck(ctx context.Context) error {
	return m.healthCheckErr
}

func TestNewServices(t *testing.T) {
	config := domain.NewRuntimeConfig("redis", "memory")
	services := NewServices(config)

	if services == nil {
		t.Fatal("expected non-nil services")
	}
	if services.Config() != config {
		t.Error("expected config to match")
	}
}

func TestServices_EmbeddingService(t *testing.T) {
	config := domain.NewRuntimeConfig("redis", "memory")
	services := NewServices(config)

	// Initially nil
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service initially")
	}

	mock := &mockEmbeddingService{}
	services.SetEmbeddingService(mock)

	if services.EmbeddingService() == nil {
		t.Error("expected non-nil embedding service after set")
	}
	if !config.EmbeddingAvailable() {
		t.Error("expected embedding to be available")
	}

	// Set to nil
	services.SetEmbeddingService(nil)
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service after clearing")
	}
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable")
	}
	if !mock.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_LLMBackends(t *testing.T) {
	config := domain.NewRuntimeConfig("redis", "memory")
	services := NewServices(config)

	if _, err := services.LLMBackend(""); !errors.Is(err, domain.ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend with nothing registered, got %v", err)
	}

	remote := &mockLLMBackend{name: "remote"}
	local := &mockLLMBackend{name: "local"}
	services.RegisterLLMBackend(remote)
	services.RegisterLLMBackend(local)

	if !config.LLMAvailable() {
		t.Error("expected LLM to be available")
	}

	// First registered becomes the default
	b, err := services.LLMBackend("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name() != "remote" {
		t.Errorf("expected default backend remote, got %s", b.Name())
	}

	b, err = services.LLMBackend("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name() != "local" {
		t.Errorf("expected local backend, got %s", b.Name())
	}

	if _, err := services.LLMBackend("gpt-9"); !errors.Is(err, domain.ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}

	services.RemoveLLMBackend("remote")
	if !remote.closed {
		t.Error("expected removed backend to be closed")
	}
	if _, err := services.LLMBackend("remote"); !errors.Is(err, domain.ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend after removal, got %v", err)
	}
}

func TestServices_RegisterLLMBackend_ReplacesSameName(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("redis", "memory"))

	old := &mockLLMBackend{name: "local"}
	replacement := &mockLLMBackend{name: "local"}
	services.RegisterLLMBackend(old)
	services.RegisterLLMBackend(replacement)

	if !old.closed {
		t.Error("expected old backend to be closed when replaced")
	}
	b, _ := services.LLMBackend("local")
	if b != replacement {
		t.Error("expected replacement backend to be returned")
	}
}

func TestServices_Reranker(t *testing.T) {
	config := domain.NewRuntimeConfig("redis", "memory")
	services := NewServices(config)
	ctx := context.Background()

	if err := services.ValidateAndSetReranker(ctx, &mockReranker{healthCheckErr: errors.New("down")}); err == nil {
		t.Error("expected error")
	}
	if services.Reranker() != nil || config.RerankerAvailable() {
		t.Error("expected failed reranker not to be set")
	}

	if err := services.ValidateAndSetReranker(ctx, &mockReranker{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if services.Reranker() == nil || !config.RerankerAvailable() {
		t.Error("expected reranker to be set")
	}
}

func TestServices_ValidateAndSetEmbedding(t *testing.T) {
	config := domain.NewRuntimeConfig("redis", "memory")
	services := NewServices(config)
	ctx := context.Background()

	t.Run("successful validation", func(t *testing.T) {
		mock := &mockEmbeddingService{}
		err := services.ValidateAndSetEmbedding(ctx, mock)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if services.EmbeddingService() == nil {
			t.Error("expected embedding service to be set")
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		mock := &mockEmbeddingService{healthCheckErr: errors.New("connection failed")}
		err := services.ValidateAndSetEmbedding(ctx, mock)
		if err == nil {
			t.Error("expected error")
		}
		if !mock.closed {
			t.Error("expected failed service to be closed")
		}
	})

	t.Run("nil service", func(t *testing.T) {
		err := services.ValidateAndSetEmbedding(ctx, nil)
		if err != nil {
			t.Errorf("unexpected error for nil service: %v", err)
		}
	})
}

func TestServices_ValidateAndRegisterLLM(t *testing.T) {
	config := domain.NewRuntimeConfig("redis", "memory")
	services := NewServices(config)
	ctx := context.Background()

	t.Run("successful validation", func(t *testing.T) {
		mock := &mockLLMBackend{name: "remote"}
		if err := services.ValidateAndRegisterLLM(ctx, mock); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := services.LLMBackend("remote"); err != nil {
			t.Errorf("expected backend to be registered: %v", err)
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		mock := &mockLLMBackend{name: "local", pingErr: errors.New("connection failed")}
		if err := services.ValidateAndRegisterLLM(ctx, mock); err == nil {
			t.Error("expected error")
		}
		if !mock.closed {
			t.Error("expected failed backend to be closed")
		}
		if _, err := services.LLMBackend("local"); err == nil {
			t.Error("expected failed backend not to be registered")
		}
	})
}

func TestServices_Close(t *testing.T) {
	config := domain.NewRuntimeConfig("redis", "memory")
	services := NewServices(config)

	embMock := &mockEmbeddingService{}
	llmMock := &mockLLMBackend{name: "remote"}

	services.SetEmbeddingService(embMock)
	services.SetReranker(&mockReranker{})
	services.RegisterLLMBackend(llmMock)

	if err := services.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !embMock.closed {
		t.Error("expected embedding service to be closed")
	}
	if !llmMock.closed {
		t.Error("expected LLM backend to be closed")
	}
	if config.LLMAvailable() || config.EmbeddingAvailable() || config.RerankerAvailable() {
		t.Error("expected all capability flags cleared")
	}
}
