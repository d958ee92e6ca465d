package driven

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// ConversationStore keeps a bounded per-session message history.
// Implementations evict the oldest messages first once the configured
// window is exceeded, and never expose one session's messages to another.
type ConversationStore interface {
	// Append adds messages to the end of the session history.
	// The first append creates the session.
	Append(ctx context.Context, sessionID string, msgs ...domain.Message) error

	// History returns up to limit most recent messages, oldest first.
	// An unknown session returns an empty slice and no error.
	History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// Clear removes a session's history
	Clear(ctx context.Context, sessionID string) error
}

// BookingStateStore persists the resumable booking draft of each session
type BookingStateStore interface {
	// Load returns the session's draft or domain.ErrNotFound
	Load(ctx context.Context, sessionID string) (*domain.BookingDraft, error)

	// Save stores the draft, replacing any previous one
	Save(ctx context.Context, draft *domain.BookingDraft) error

	// Delete discards the session's draft. Deleting a missing draft is not an error.
	Delete(ctx context.Context, sessionID string) error
}
