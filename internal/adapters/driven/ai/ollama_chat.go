package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure OllamaChat implements LLMBackend
var _ driven.LLMBackend = (*OllamaChat)(nil)

// DefaultOllamaChatModel is used when no model is configured
const DefaultOllamaChatModel = "llama3.2"

// OllamaChat is the self-hosted generation backend (POST /api/chat).
// Structured mode passes the schema as the response format, so the
// model is constrained to emit a matching JSON object.
type OllamaChat struct {
	name    string
	baseURL string
	model   string
	client  *http.Client
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   map[string]any      `json:"format,omitempty"`
	Options  *ollamaOptions      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

// NewOllamaChat creates a local backend from settings
func NewOllamaChat(settings *domain.LLMBackendSettings) (*OllamaChat, error) {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	model := settings.Model
	if model == "" {
		model = DefaultOllamaChatModel
	}

	return &OllamaChat{
		name:    settings.Name,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		// Callers bound each call with a context deadline
		client: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Name returns the registry name of this backend
func (c *OllamaChat) Name() string {
	return c.name
}

// Model returns the local model name
func (c *OllamaChat) Model() string {
	return c.model
}

// Generate runs one non-streaming chat call
func (c *OllamaChat) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	if req.Mode == domain.ModeStructured && req.Schema == nil {
		return nil, fmt.Errorf("%w: structured mode needs a schema", domain.ErrInvalidInput)
	}

	body := ollamaChatRequest{
		Model:    c.model,
		Messages: c.messages(req),
	}
	if req.Mode == domain.ModeStructured {
		body.Format = req.Schema.Parameters
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.Options = &ollamaOptions{NumPredict: req.MaxTokens, Temperature: req.Temperature}
	}

	var resp ollamaChatResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/api/chat", "", body, &resp); err != nil {
		return nil, domain.NewInferenceError("generate", c.name, err)
	}

	result := &domain.GenerateResult{Backend: c.name, Model: c.model}
	content := strings.TrimSpace(resp.Message.Content)

	if req.Mode != domain.ModeStructured {
		result.Text = content
		result.Declined = content == ""
		return result, nil
	}

	payload, declined, err := decodePayload(content)
	if err != nil {
		return nil, &domain.InferenceError{
			Op:      "generate",
			Backend: c.name,
			Err:     fmt.Errorf("malformed structured output: %w", err),
		}
	}
	result.Payload = payload
	result.Declined = declined
	return result, nil
}

func (c *OllamaChat) messages(req *domain.GenerateRequest) []ollamaChatMessage {
	msgs := make([]ollamaChatMessage, 0, len(req.History)+2)
	if sys := systemPrompt(req); sys != "" {
		msgs = append(msgs, ollamaChatMessage{Role: string(domain.RoleSystem), Content: sys})
	}
	for _, m := range req.History {
		if m.Role == domain.RoleUser || m.Role == domain.RoleAssistant {
			msgs = append(msgs, ollamaChatMessage{Role: string(m.Role), Content: m.Content})
		}
	}
	if req.Prompt != "" {
		msgs = append(msgs, ollamaChatMessage{Role: string(domain.RoleUser), Content: req.Prompt})
	}
	return msgs
}

// Ping checks the server is reachable by listing local models
func (c *OllamaChat) Ping(ctx context.Context) error {
	return getOK(ctx, c.client, c.baseURL+"/api/tags")
}

// Close releases idle connections
func (c *OllamaChat) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
