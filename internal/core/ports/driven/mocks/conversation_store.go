package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

var (
	_ driven.ConversationStore = (*MockConversationStore)(nil)
	_ driven.BookingStateStore = (*MockBookingStateStore)(nil)
)

// MockConversationStore keeps bounded histories in memory
type MockConversationStore struct {
	mu       sync.Mutex
	window   int
	sessions map[string][]domain.Message

	AppendErr error
}

// NewMockConversationStore creates a store that keeps window messages per session
func NewMockConversationStore(window int) *MockConversationStore {
	return &MockConversationStore{window: window, sessions: make(map[string][]domain.Message)}
}

func (m *MockConversationStore) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	h := append(m.sessions[sessionID], msgs...)
	if m.window > 0 && len(h) > m.window {
		h = h[len(h)-m.window:]
	}
	m.sessions[sessionID] = h
	return nil
}

func (m *MockConversationStore) History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.sessions[sessionID]
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]domain.Message{}, h...), nil
}

func (m *MockConversationStore) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// MockBookingStateStore keeps drafts in memory
type MockBookingStateStore struct {
	mu     sync.Mutex
	drafts map[string]*domain.BookingDraft

	SaveErr error
}

// NewMockBookingStateStore creates an empty MockBookingStateStore
func NewMockBookingStateStore() *MockBookingStateStore {
	return &MockBookingStateStore{drafts: make(map[string]*domain.BookingDraft)}
}

func (m *MockBookingStateStore) Load(ctx context.Context, sessionID string) (*domain.BookingDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d.Clone(), nil
}

func (m *MockBookingStateStore) Save(ctx context.Context, draft *domain.BookingDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.drafts[draft.SessionID] = draft.Clone()
	return nil
}

func (m *MockBookingStateStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, sessionID)
	return nil
}
