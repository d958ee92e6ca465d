package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.ConversationStore = (*ConversationStore)(nil)
	_ driven.BookingStateStore = (*BookingStateStore)(nil)
)

// ConversationStore keeps session history in PostgreSQL.
// This is the fallback when Redis is not available; rows beyond the
// window are pruned on every append.
type ConversationStore struct {
	db     *DB
	window int
}

// NewConversationStore creates a store keeping at most window messages per session
func NewConversationStore(db *DB, window int) *ConversationStore {
	if window <= 0 {
		window = 40
	}
	return &ConversationStore{db: db, window: window}
}

// Append adds messages and evicts the oldest beyond the window
func (s *ConversationStore) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO conversation_messages (session_id, role, content, tool_call, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, m := range msgs {
			var toolCall []byte
			if m.ToolCall != nil {
				if toolCall, err = json.Marshal(m.ToolCall); err != nil {
					return err
				}
			}
			if _, err := stmt.ExecContext(ctx, sessionID, m.Role, m.Content, toolCall, m.Timestamp); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM conversation_messages
			WHERE session_id = $1 AND id NOT IN (
				SELECT id FROM conversation_messages
				WHERE session_id = $1
				ORDER BY id DESC
				LIMIT $2
			)
		`, sessionID, s.window)
		return err
	})
}

// History returns up to limit most recent messages, oldest first
func (s *ConversationStore) History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > s.window {
		limit = s.window
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, tool_call, created_at FROM (
			SELECT id, role, content, tool_call, created_at
			FROM conversation_messages
			WHERE session_id = $1
			ORDER BY id DESC
			LIMIT $2
		) recent
		ORDER BY id ASC
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]domain.Message, 0, limit)
	for rows.Next() {
		var m domain.Message
		var toolCall []byte
		if err := rows.Scan(&m.Role, &m.Content, &toolCall, &m.Timestamp); err != nil {
			return nil, err
		}
		if len(toolCall) > 0 {
			m.ToolCall = &domain.ToolCall{}
			if err := json.Unmarshal(toolCall, m.ToolCall); err != nil {
				return nil, err
			}
		}
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Clear removes a session's history
func (s *ConversationStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversation_messages WHERE session_id = $1`, sessionID)
	return err
}

// BookingStateStore persists booking drafts as JSONB rows
type BookingStateStore struct {
	db *DB
}

// NewBookingStateStore creates a new BookingStateStore
func NewBookingStateStore(db *DB) *BookingStateStore {
	return &BookingStateStore{db: db}
}

// Load returns the session's draft or domain.ErrNotFound
func (s *BookingStateStore) Load(ctx context.Context, sessionID string) (*domain.BookingDraft, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT draft FROM booking_drafts WHERE session_id = $1`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var draft domain.BookingDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// Save stores the draft, replacing any previous one
func (s *BookingStateStore) Save(ctx context.Context, draft *domain.BookingDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO booking_drafts (session_id, draft, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET draft = EXCLUDED.draft, updated_at = EXCLUDED.updated_at
	`, draft.SessionID, data, time.Now())
	return err
}

// Delete discards the session's draft
func (s *BookingStateStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM booking_drafts WHERE session_id = $1`, sessionID)
	return err
}
