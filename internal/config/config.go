// Package config loads pipeline tuning from an optional YAML file and the
// environment, and builds AI service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// Load reads pipeline configuration from path. A missing file yields the
// defaults. Environment overrides are applied on top of the file and the
// result is validated.
func Load(path string) (*domain.PipelineConfig, error) {
	cfg := domain.DefaultPipelineConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides individual options from the environment. A malformed
// value is an error rather than silently ignored.
func applyEnv(cfg *domain.PipelineConfig) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"CHUNK_MAX_CHARS", &cfg.Chunking.MaxChars},
		{"CHUNK_OVERLAP", &cfg.Chunking.Overlap},
		{"SEMANTIC_MAX_CHARS", &cfg.Chunking.SemanticMaxChars},
		{"LEXICAL_CANDIDATES", &cfg.Retrieval.LexicalCandidates},
		{"VECTOR_CANDIDATES", &cfg.Retrieval.VectorCandidates},
		{"RRF_K", &cfg.Retrieval.RRFK},
		{"TOP_K", &cfg.Retrieval.TopK},
		{"RERANK_CANDIDATES", &cfg.Retrieval.RerankCandidates},
		{"MAX_CONTEXT_CHARS", &cfg.Retrieval.MaxContextChars},
		{"MEMORY_WINDOW", &cfg.Memory.Window},
		{"PROMPT_HISTORY", &cfg.Memory.PromptHistory},
	}
	for _, o := range ints {
		if err := lookupInt(o.key, o.dst); err != nil {
			return err
		}
	}

	if v, ok := lookup("SEMANTIC_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: SEMANTIC_THRESHOLD: %v", domain.ErrInvalidInput, err)
		}
		cfg.Chunking.SemanticThreshold = f
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"MEMORY_TTL", &cfg.Memory.TTL},
		{"EMBEDDING_TIMEOUT", &cfg.Timeouts.Embedding},
		{"VECTOR_TIMEOUT", &cfg.Timeouts.Vector},
		{"RERANK_TIMEOUT", &cfg.Timeouts.Rerank},
		{"LLM_TIMEOUT", &cfg.Timeouts.LLM},
		{"PERSISTENCE_TIMEOUT", &cfg.Timeouts.Persistence},
		{"LOCK_WAIT", &cfg.Timeouts.LockWait},
		{"TURN_TIMEOUT", &cfg.Timeouts.Turn},
		{"RETRY_BACKOFF", &cfg.Timeouts.RetryBackoff},
	}
	for _, o := range durations {
		v, ok := lookup(o.key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, o.key, err)
		}
		*o.dst = d
	}
	return nil
}

// AISettingsFromEnv builds embedding, reranker and LLM backend settings.
// Services whose variables are unset are left unconfigured. The remote
// backend is registered as "remote" and the local one as "local".
func AISettingsFromEnv() (*domain.AISettings, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	settings := &domain.AISettings{
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProvider(os.Getenv("EMBEDDING_PROVIDER")),
			Model:    os.Getenv("EMBEDDING_MODEL"),
			BaseURL:  os.Getenv("EMBEDDING_BASE_URL"),
		},
		UpdatedAt: time.Now(),
	}
	if settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = apiKey
	}

	if url := os.Getenv("RERANKER_URL"); url != "" {
		settings.Reranker = domain.RerankerSettings{
			Provider: domain.AIProviderTEI,
			Model:    os.Getenv("RERANKER_MODEL"),
			BaseURL:  url,
		}
	}

	if model := os.Getenv("REMOTE_LLM_MODEL"); model != "" {
		rps := 0.0
		if v, ok := lookup("REMOTE_LLM_RPS"); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 {
				return nil, fmt.Errorf("%w: REMOTE_LLM_RPS must be a non-negative number", domain.ErrInvalidInput)
			}
			rps = f
		}
		settings.Backends = append(settings.Backends, domain.LLMBackendSettings{
			Name:              "remote",
			Provider:          domain.AIProviderOpenAI,
			Model:             model,
			APIKey:            apiKey,
			BaseURL:           os.Getenv("REMOTE_LLM_BASE_URL"),
			RequestsPerSecond: rps,
		})
	}

	if url := os.Getenv("LOCAL_LLM_URL"); url != "" {
		settings.Backends = append(settings.Backends, domain.LLMBackendSettings{
			Name:     "local",
			Provider: domain.AIProviderOllama,
			Model:    getEnv("LOCAL_LLM_MODEL", "llama3.2"),
			BaseURL:  url,
		})
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// DefaultBackend returns DEFAULT_LLM, falling back to the first configured
// backend.
func DefaultBackend(settings *domain.AISettings) string {
	if name := os.Getenv("DEFAULT_LLM"); name != "" {
		return name
	}
	if len(settings.Backends) > 0 {
		return settings.Backends[0].Name
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func lookupInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	*dst = n
	return nil
}
