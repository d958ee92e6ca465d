package domain

import "time"

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ToolCall records a structured call attached to a message
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is one entry in a session's history. Immutable once appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ToolCall  *ToolCall `json:"tool_call,omitempty"`
}

// NewMessage creates a message stamped with the given time
func NewMessage(role Role, content string, at time.Time) Message {
	return Message{Role: role, Content: content, Timestamp: at.UTC()}
}

// ChatRequest is one inbound chat turn
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Model     string `json:"model,omitempty"` // LLM backend name; empty selects the default
}

// SourceChunk is a chunk used to ground a reply
type SourceChunk struct {
	ChunkID     string   `json:"chunk_id"`
	DocumentID  string   `json:"document_id"`
	Filename    string   `json:"filename,omitempty"`
	Position    int      `json:"position"`
	TextPreview string   `json:"text_preview"`
	FusedScore  float64  `json:"fused_score"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
}

// ChatResponse is the reply to a chat turn
type ChatResponse struct {
	Reply          string        `json:"reply"`
	Sources        []SourceChunk `json:"sources"`
	BookingCreated bool          `json:"booking_created"`
	BookingID      *string       `json:"booking_id"`
	State          BookingState  `json:"state"`
}
