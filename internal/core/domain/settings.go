package domain

import "time"

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai" // OpenAI or any OpenAI-compatible endpoint
	AIProviderOllama AIProvider = "ollama"
	AIProviderTEI    AIProvider = "tei" // Text Embeddings Inference (embeddings and cross-encoder rerank)
)

// AISettings holds AI service configuration
type AISettings struct {
	Embedding EmbeddingSettings    `json:"embedding"`
	Reranker  RerankerSettings     `json:"reranker"`
	Backends  []LLMBackendSettings `json:"backends"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider   AIProvider `json:"provider"`
	Model      string     `json:"model"`
	APIKey     string     `json:"-"` // Never serialize to JSON
	BaseURL    string     `json:"base_url,omitempty"`
	Dimensions int        `json:"dimensions,omitempty"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RerankerSettings configures the cross-encoder reranker
type RerankerSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	BaseURL  string     `json:"base_url,omitempty"`
	APIKey   string     `json:"-"`
}

// IsConfigured returns true if a reranker endpoint is set
func (r *RerankerSettings) IsConfigured() bool {
	return r.Provider != "" && r.BaseURL != ""
}

// LLMBackendSettings configures one generation backend variant
type LLMBackendSettings struct {
	Name     string     `json:"name"` // Name callers select per request, e.g. "remote"
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"-"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty"`
	// RequestsPerSecond throttles outbound calls (0 = unlimited)
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
}

// IsConfigured returns true if LLM settings are properly configured
func (l *LLMBackendSettings) IsConfigured() bool {
	if l.Name == "" || l.Provider == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOpenAI:
		return true
	default:
		return false // Self-hosted, no API key needed
	}
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama, AIProviderTEI:
		return true
	default:
		return false
	}
}

// Validate checks if AISettings are valid
func (s *AISettings) Validate() error {
	if s.Embedding.Provider != "" && !s.Embedding.Provider.IsValid() {
		return ErrInvalidProvider
	}
	if s.Reranker.Provider != "" && !s.Reranker.Provider.IsValid() {
		return ErrInvalidProvider
	}
	seen := make(map[string]bool, len(s.Backends))
	for _, b := range s.Backends {
		if !b.Provider.IsValid() {
			return ErrInvalidProvider
		}
		if seen[b.Name] {
			return ErrAlreadyExists
		}
		seen[b.Name] = true
	}
	return nil
}
