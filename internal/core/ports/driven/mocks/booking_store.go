package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

var _ driven.BookingStore = (*MockBookingStore)(nil)

// MockBookingStore stores bookings in memory.
// CreateFn, when set, decides the outcome of Create.
type MockBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking

	CreateFn func(b *domain.Booking) (string, error)
}

// NewMockBookingStore creates an empty MockBookingStore
func NewMockBookingStore() *MockBookingStore {
	return &MockBookingStore{bookings: make(map[string]*domain.Booking)}
}

func (m *MockBookingStore) Create(ctx context.Context, b *domain.Booking) (string, error) {
	if m.CreateFn != nil {
		id, err := m.CreateFn(b)
		if err != nil {
			return "", err
		}
		b.ID = id
	} else if b.ID == "" {
		b.ID = domain.GenerateID()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return b.ID, nil
}

func (m *MockBookingStore) Get(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// All returns every stored booking
func (m *MockBookingStore) All() []*domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	return out
}
