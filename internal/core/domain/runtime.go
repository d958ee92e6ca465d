package domain

import (
	"sort"
	"sync"
)

// RuntimeConfig tracks which services are available at runtime.
// Static backends are set at startup; capability flags change when
// AI services are swapped. Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	SessionBackend string // "redis" or "postgres"
	VectorBackend  string // "qdrant", "pgvector" or "memory"

	// Dynamic capability flags
	embeddingAvailable bool
	rerankerAvailable  bool
	llmBackends        map[string]bool
	defaultBackend     string
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(sessionBackend, vectorBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		SessionBackend: sessionBackend,
		VectorBackend:  vectorBackend,
		llmBackends:    make(map[string]bool),
	}
}

// EmbeddingAvailable returns whether embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// RerankerAvailable returns whether a cross-encoder is configured
func (c *RuntimeConfig) RerankerAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rerankerAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetRerankerAvailable updates the reranker availability flag
func (c *RuntimeConfig) SetRerankerAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rerankerAvailable = available
}

// SetLLMBackend marks a named backend as registered or removed
func (c *RuntimeConfig) SetLLMBackend(name string, available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if available {
		c.llmBackends[name] = true
		if c.defaultBackend == "" {
			c.defaultBackend = name
		}
		return
	}
	delete(c.llmBackends, name)
	if c.defaultBackend == name {
		c.defaultBackend = ""
	}
}

// SetDefaultBackend selects the backend used when a request names none
func (c *RuntimeConfig) SetDefaultBackend(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultBackend = name
}

// DefaultBackend returns the default backend name (may be empty)
func (c *RuntimeConfig) DefaultBackend() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultBackend
}

// LLMBackends returns registered backend names, sorted
func (c *RuntimeConfig) LLMBackends() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.llmBackends))
	for name := range c.llmBackends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LLMAvailable returns whether any generation backend is registered
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.llmBackends) > 0
}

// EffectiveSearchMode returns the best available search mode
func (c *RuntimeConfig) EffectiveSearchMode() SearchMode {
	if c.EmbeddingAvailable() {
		return SearchModeHybrid
	}
	return SearchModeTextOnly
}
