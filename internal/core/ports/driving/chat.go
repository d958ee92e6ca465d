package driving

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// ChatService runs conversational turns
type ChatService interface {
	// Chat processes one turn. Internal failures become an apology reply;
	// only invalid input is returned as an error.
	Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error)

	// History returns up to limit most recent messages of a session
	History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
}
