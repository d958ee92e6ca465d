package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var (
	_ driven.ConversationStore = (*ConversationStore)(nil)
	_ driven.BookingStateStore = (*BookingStateStore)(nil)
)

const (
	// Key prefixes for Redis
	chatPrefix  = "chat:"
	draftPrefix = "booking:draft:"
)

// ConversationStore keeps each session's history in a Redis list.
// The list is trimmed to the window on every append and expires after TTL
// of inactivity.
type ConversationStore struct {
	client *redis.Client
	window int
	ttl    time.Duration
}

// NewConversationStore creates a Redis-backed ConversationStore
func NewConversationStore(client *redis.Client, window int, ttl time.Duration) *ConversationStore {
	return &ConversationStore{client: client, window: window, ttl: ttl}
}

// Append pushes messages and trims the oldest beyond the window
func (s *ConversationStore) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, len(msgs))
	for i, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values[i] = data
	}

	key := chatPrefix + sessionID
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.window > 0 {
		pipe.LTrim(ctx, key, int64(-s.window), -1)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append messages: %w", err)
	}
	return nil
}

// History returns the most recent messages, oldest first
func (s *ConversationStore) History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := s.client.LRange(ctx, chatPrefix+sessionID, start, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	msgs := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var m domain.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Clear removes a session's history
func (s *ConversationStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, chatPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// BookingStateStore keeps each session's booking draft as JSON with TTL
type BookingStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBookingStateStore creates a Redis-backed BookingStateStore
func NewBookingStateStore(client *redis.Client, ttl time.Duration) *BookingStateStore {
	return &BookingStateStore{client: client, ttl: ttl}
}

func (s *BookingStateStore) Load(ctx context.Context, sessionID string) (*domain.BookingDraft, error) {
	data, err := s.client.Get(ctx, draftPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking draft: %w", err)
	}

	var draft domain.BookingDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking draft: %w", err)
	}
	return &draft, nil
}

func (s *BookingStateStore) Save(ctx context.Context, draft *domain.BookingDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal booking draft: %w", err)
	}
	if err := s.client.Set(ctx, draftPrefix+draft.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save booking draft: %w", err)
	}
	return nil
}

func (s *BookingStateStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, draftPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete booking draft: %w", err)
	}
	return nil
}
