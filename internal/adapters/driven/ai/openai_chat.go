package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure OpenAIChat implements LLMBackend
var _ driven.LLMBackend = (*OpenAIChat)(nil)

// DefaultOpenAIChatModel is used when no model is configured
const DefaultOpenAIChatModel = "gpt-4o-mini"

// OpenAIChat is the remote generation backend. Structured mode is
// served through function calling: the schema becomes the single tool
// and a call to it carries the payload.
type OpenAIChat struct {
	name    string
	model   string
	client  openai.Client
	limiter *rate.Limiter
}

// NewOpenAIChat creates a remote backend from settings
func NewOpenAIChat(settings *domain.LLMBackendSettings) (*OpenAIChat, error) {
	if settings.APIKey == "" && settings.BaseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := settings.Model
	if model == "" {
		model = DefaultOpenAIChatModel
	}

	// Retries are the orchestrator's job
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if settings.APIKey != "" {
		opts = append(opts, option.WithAPIKey(settings.APIKey))
	}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(settings.BaseURL, "/")+"/"))
	}

	var limiter *rate.Limiter
	if settings.RequestsPerSecond > 0 {
		burst := int(settings.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), burst)
	}

	return &OpenAIChat{
		name:    settings.Name,
		model:   model,
		client:  openai.NewClient(opts...),
		limiter: limiter,
	}, nil
}

// Name returns the registry name of this backend
func (c *OpenAIChat) Name() string {
	return c.name
}

// Model returns the hosted model name
func (c *OpenAIChat) Model() string {
	return c.model
}

// Generate runs one chat completion
func (c *OpenAIChat) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	if req.Mode == domain.ModeStructured && req.Schema == nil {
		return nil, fmt.Errorf("%w: structured mode needs a schema", domain.ErrInvalidInput)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.wrapErr(err)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: c.messages(req),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Mode == domain.ModeStructured {
		params.Tools = []openai.ChatCompletionToolParam{{
			Function: openai.FunctionDefinitionParam{
				Name:        req.Schema.Name,
				Description: openai.String(req.Schema.Description),
				Parameters:  openai.FunctionParameters(req.Schema.Parameters),
			},
		}}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.wrapErr(err)
	}

	result := &domain.GenerateResult{Backend: c.name, Model: c.model}
	if len(resp.Choices) == 0 {
		result.Declined = true
		return result, nil
	}
	msg := resp.Choices[0].Message
	result.Text = strings.TrimSpace(msg.Content)

	if req.Mode != domain.ModeStructured {
		result.Declined = result.Text == ""
		return result, nil
	}

	for _, call := range msg.ToolCalls {
		if call.Function.Name != req.Schema.Name {
			continue
		}
		payload, declined, err := decodePayload(call.Function.Arguments)
		if err != nil {
			return nil, &domain.InferenceError{
				Op:      "generate",
				Backend: c.name,
				Err:     fmt.Errorf("malformed tool arguments: %w", err),
			}
		}
		result.Payload = payload
		result.Declined = declined
		return result, nil
	}

	// The model answered in prose instead of calling the tool
	result.Declined = true
	return result, nil
}

func (c *OpenAIChat) messages(req *domain.GenerateRequest) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if sys := systemPrompt(req); sys != "" {
		msgs = append(msgs, openai.SystemMessage(sys))
	}
	for _, m := range req.History {
		switch m.Role {
		case domain.RoleUser:
			msgs = append(msgs, openai.UserMessage(m.Content))
		case domain.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		}
	}
	if req.Prompt != "" {
		msgs = append(msgs, openai.UserMessage(req.Prompt))
	}
	return msgs
}

// wrapErr classifies an SDK error. API errors carry their HTTP status
// so rate limits and 5xx count as transient.
func (c *OpenAIChat) wrapErr(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		err = &domain.StatusError{StatusCode: apiErr.StatusCode, Body: apiErr.Message}
	}
	return domain.NewInferenceError("generate", c.name, err)
}

// Ping checks the configured model is visible to this key
func (c *OpenAIChat) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := c.client.Models.Get(ctx, c.model); err != nil {
		return c.wrapErr(err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources to release
func (c *OpenAIChat) Close() error {
	return nil
}
