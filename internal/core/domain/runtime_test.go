package domain

import (
	"reflect"
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("redis", "qdrant")

	if config.SessionBackend != "redis" {
		t.Errorf("expected redis, got %s", config.SessionBackend)
	}
	if config.VectorBackend != "qdrant" {
		t.Errorf("expected qdrant, got %s", config.VectorBackend)
	}
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable initially")
	}
	if config.LLMAvailable() {
		t.Error("expected LLM to be unavailable initially")
	}
	if config.EffectiveSearchMode() != SearchModeTextOnly {
		t.Errorf("expected text mode without embeddings, got %s", config.EffectiveSearchMode())
	}
}

func TestRuntimeConfig_EmbeddingAvailable(t *testing.T) {
	config := NewRuntimeConfig("postgres", "pgvector")

	config.SetEmbeddingAvailable(true)
	if !config.EmbeddingAvailable() {
		t.Error("expected embedding to be available after setting")
	}
	if config.EffectiveSearchMode() != SearchModeHybrid {
		t.Errorf("expected hybrid mode, got %s", config.EffectiveSearchMode())
	}

	config.SetEmbeddingAvailable(false)
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable after unsetting")
	}
}

func TestRuntimeConfig_LLMBackends(t *testing.T) {
	config := NewRuntimeConfig("redis", "memory")

	config.SetLLMBackend("remote", true)
	config.SetLLMBackend("local", true)

	if !config.LLMAvailable() {
		t.Fatal("expected LLM available")
	}
	if got := config.DefaultBackend(); got != "remote" {
		t.Errorf("expected first registered backend as default, got %q", got)
	}
	if got := config.LLMBackends(); !reflect.DeepEqual(got, []string{"local", "remote"}) {
		t.Errorf("expected sorted backends, got %v", got)
	}

	config.SetDefaultBackend("local")
	config.SetLLMBackend("local", false)
	if config.DefaultBackend() != "" {
		t.Errorf("expected default cleared on removal, got %q", config.DefaultBackend())
	}
	if got := config.LLMBackends(); !reflect.DeepEqual(got, []string{"remote"}) {
		t.Errorf("expected [remote], got %v", got)
	}
}
