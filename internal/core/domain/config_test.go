package domain

import (
	"errors"
	"testing"
)

func TestDefaultPipelineConfig_Valid(t *testing.T) {
	cfg := DefaultPipelineConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Retrieval.RRFK != 60 {
		t.Errorf("expected rrf_k 60, got %d", cfg.Retrieval.RRFK)
	}
}

func TestPipelineConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
	}{
		{"overlap >= max_chars", func(c *PipelineConfig) { c.Chunking.Overlap = c.Chunking.MaxChars }},
		{"negative overlap", func(c *PipelineConfig) { c.Chunking.Overlap = -1 }},
		{"threshold out of range", func(c *PipelineConfig) { c.Chunking.SemanticThreshold = 1.5 }},
		{"zero candidates", func(c *PipelineConfig) { c.Retrieval.LexicalCandidates = 0 }},
		{"negative rrf_k", func(c *PipelineConfig) { c.Retrieval.RRFK = -1 }},
		{"zero top_k", func(c *PipelineConfig) { c.Retrieval.TopK = 0 }},
		{"zero window", func(c *PipelineConfig) { c.Memory.Window = 0 }},
		{"zero llm timeout", func(c *PipelineConfig) { c.Timeouts.LLM = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestChunkStrategy_IsValid(t *testing.T) {
	if !ChunkStrategyFixed.IsValid() || !ChunkStrategySemantic.IsValid() {
		t.Error("expected known strategies to be valid")
	}
	if ChunkStrategy("paragraph").IsValid() {
		t.Error("expected unknown strategy to be invalid")
	}
}

func TestChunk_Before(t *testing.T) {
	a := &Chunk{ID: "a", DocumentID: "d1", DocumentSeq: 1, Position: 3}
	b := &Chunk{ID: "b", DocumentID: "d2", DocumentSeq: 2, Position: 0}
	c := &Chunk{ID: "c", DocumentID: "d1", DocumentSeq: 1, Position: 4}

	if !a.Before(b) {
		t.Error("earlier document must order first")
	}
	if !a.Before(c) || c.Before(a) {
		t.Error("lower position must order first within a document")
	}
}

func TestGenerateResult_String(t *testing.T) {
	r := &GenerateResult{Payload: map[string]any{"name": "  Sajeena ", "n": 3}}
	if r.String("name") != "Sajeena" {
		t.Errorf("expected trimmed value, got %q", r.String("name"))
	}
	if r.String("n") != "" || r.String("missing") != "" {
		t.Error("expected empty for non-string or missing keys")
	}
	var nilResult *GenerateResult
	if nilResult.String("name") != "" {
		t.Error("expected empty for nil result")
	}
}

func TestAISettings_Validate(t *testing.T) {
	s := &AISettings{Backends: []LLMBackendSettings{
		{Name: "remote", Provider: AIProviderOpenAI},
		{Name: "remote", Provider: AIProviderOllama},
	}}
	if !errors.Is(s.Validate(), ErrAlreadyExists) {
		t.Error("expected duplicate backend name to fail")
	}

	s = &AISettings{Embedding: EmbeddingSettings{Provider: "bogus"}}
	if !errors.Is(s.Validate(), ErrInvalidProvider) {
		t.Error("expected unknown provider to fail")
	}

	remote := LLMBackendSettings{Name: "remote", Provider: AIProviderOpenAI}
	if remote.IsConfigured() {
		t.Error("openai backend without key must not be configured")
	}
	local := LLMBackendSettings{Name: "local", Provider: AIProviderOllama}
	if !local.IsConfigured() {
		t.Error("ollama backend needs no key")
	}
}

func TestAuthContext_HasScope(t *testing.T) {
	a := &AuthContext{Subject: "svc", Scopes: []Scope{ScopeChat}}
	if !a.HasScope(ScopeChat) || a.HasScope(ScopeIngest) {
		t.Error("unexpected scope check result")
	}
	claims := NewTokenClaims("svc", []Scope{ScopeIngest}, -1)
	if !claims.IsExpired() {
		t.Error("expected negative ttl to be expired")
	}
}
