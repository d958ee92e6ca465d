package domain

import (
	"fmt"
	"time"
)

// ChunkingConfig holds chunker defaults
type ChunkingConfig struct {
	MaxChars          int     `yaml:"max_chars" json:"max_chars"`
	Overlap           int     `yaml:"overlap" json:"overlap"`
	SemanticThreshold float64 `yaml:"semantic_threshold" json:"semantic_threshold"` // τ
	SemanticMaxChars  int     `yaml:"semantic_max_chars" json:"semantic_max_chars"` // Hard size cap
}

// RetrievalConfig holds fan-out and fusion settings
type RetrievalConfig struct {
	LexicalCandidates int `yaml:"lexical_candidates" json:"lexical_candidates"` // N_lex
	VectorCandidates  int `yaml:"vector_candidates" json:"vector_candidates"`   // N_vec
	RRFK              int `yaml:"rrf_k" json:"rrf_k"`                           // κ
	TopK              int `yaml:"top_k" json:"top_k"`
	RerankCandidates  int `yaml:"rerank_candidates" json:"rerank_candidates"`
	MaxContextChars   int `yaml:"max_context_chars" json:"max_context_chars"`
}

// MemoryConfig holds conversation memory settings
type MemoryConfig struct {
	Window        int           `yaml:"window" json:"window"`                 // Messages kept per session
	PromptHistory int           `yaml:"prompt_history" json:"prompt_history"` // Messages passed to the LLM
	TTL           time.Duration `yaml:"ttl" json:"ttl"`
}

// TimeoutConfig bounds every external call
type TimeoutConfig struct {
	Embedding    time.Duration `yaml:"embedding" json:"embedding"`
	Vector       time.Duration `yaml:"vector" json:"vector"`
	Rerank       time.Duration `yaml:"rerank" json:"rerank"`
	LLM          time.Duration `yaml:"llm" json:"llm"`
	Persistence  time.Duration `yaml:"persistence" json:"persistence"`
	LockWait     time.Duration `yaml:"lock_wait" json:"lock_wait"`
	Turn         time.Duration `yaml:"turn" json:"turn"`
	RetryBackoff time.Duration `yaml:"retry_backoff" json:"retry_backoff"`
}

// PipelineConfig is the recognized configuration surface of the pipeline
type PipelineConfig struct {
	Chunking  ChunkingConfig  `yaml:"chunking" json:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
	Memory    MemoryConfig    `yaml:"memory" json:"memory"`
	Timeouts  TimeoutConfig   `yaml:"timeouts" json:"timeouts"`
}

// DefaultPipelineConfig returns the defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Chunking: ChunkingConfig{
			MaxChars:          500,
			Overlap:           100,
			SemanticThreshold: 0.5,
			SemanticMaxChars:  1000,
		},
		Retrieval: RetrievalConfig{
			LexicalCandidates: 20,
			VectorCandidates:  20,
			RRFK:              60,
			TopK:              5,
			RerankCandidates:  20,
			MaxContextChars:   6000,
		},
		Memory: MemoryConfig{
			Window:        40,
			PromptHistory: 10,
			TTL:           7 * 24 * time.Hour,
		},
		Timeouts: TimeoutConfig{
			Embedding:    15 * time.Second,
			Vector:       5 * time.Second,
			Rerank:       15 * time.Second,
			LLM:          60 * time.Second,
			Persistence:  5 * time.Second,
			LockWait:     30 * time.Second,
			Turn:         3 * time.Minute,
			RetryBackoff: 250 * time.Millisecond,
		},
	}
}

// Validate checks the configuration for inconsistent values
func (c PipelineConfig) Validate() error {
	ch := c.Chunking
	if ch.MaxChars <= 0 {
		return fmt.Errorf("%w: chunking.max_chars must be positive", ErrInvalidInput)
	}
	if ch.Overlap < 0 || ch.Overlap >= ch.MaxChars {
		return fmt.Errorf("%w: chunking.overlap must be in [0, max_chars)", ErrInvalidInput)
	}
	if ch.SemanticThreshold < -1 || ch.SemanticThreshold > 1 {
		return fmt.Errorf("%w: chunking.semantic_threshold must be in [-1, 1]", ErrInvalidInput)
	}
	if ch.SemanticMaxChars <= 0 {
		return fmt.Errorf("%w: chunking.semantic_max_chars must be positive", ErrInvalidInput)
	}

	r := c.Retrieval
	if r.LexicalCandidates <= 0 || r.VectorCandidates <= 0 {
		return fmt.Errorf("%w: retrieval candidate counts must be positive", ErrInvalidInput)
	}
	if r.RRFK < 0 {
		return fmt.Errorf("%w: retrieval.rrf_k must not be negative", ErrInvalidInput)
	}
	if r.TopK <= 0 || r.RerankCandidates <= 0 {
		return fmt.Errorf("%w: retrieval.top_k and rerank_candidates must be positive", ErrInvalidInput)
	}
	if r.MaxContextChars <= 0 {
		return fmt.Errorf("%w: retrieval.max_context_chars must be positive", ErrInvalidInput)
	}

	if c.Memory.Window <= 0 || c.Memory.PromptHistory < 0 {
		return fmt.Errorf("%w: memory.window must be positive", ErrInvalidInput)
	}

	t := c.Timeouts
	for name, d := range map[string]time.Duration{
		"embedding":   t.Embedding,
		"vector":      t.Vector,
		"rerank":      t.Rerank,
		"llm":         t.LLM,
		"persistence": t.Persistence,
		"lock_wait":   t.LockWait,
		"turn":        t.Turn,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: timeouts.%s must be positive", ErrInvalidInput, name)
		}
	}
	return nil
}
