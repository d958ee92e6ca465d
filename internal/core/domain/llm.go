package domain

import "strings"

// Backend names a generation backend variant
type Backend string

const (
	BackendRemote Backend = "remote" // Function-calling hosted model
	BackendLocal  Backend = "local"  // Self-hosted model
)

// GenerationMode selects free text or schema-conformant output
type GenerationMode string

const (
	ModeText       GenerationMode = "text"
	ModeStructured GenerationMode = "structured"
)

// StructuredSchema describes the payload a structured call must return.
// Parameters is a JSON schema object.
type StructuredSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// GenerateRequest is one orchestrator call
type GenerateRequest struct {
	Mode        GenerationMode
	System      string
	History     []Message
	Prompt      string
	Context     string // Retrieved context, injected into the system prompt
	Schema      *StructuredSchema
	Temperature float64
	MaxTokens   int
}

// GenerateResult is the outcome of a successful call.
// Declined is a valid outcome: the model answered but did not produce
// the requested structure (or produced nothing usable), and Text may
// hold its clarifying reply.
type GenerateResult struct {
	Backend  string         `json:"backend"`
	Model    string         `json:"model"`
	Text     string         `json:"text,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	Declined bool           `json:"declined"`
}

// String returns a payload field as a trimmed string
func (r *GenerateResult) String(key string) string {
	if r == nil || r.Payload == nil {
		return ""
	}
	v, ok := r.Payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
