package driven

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// BookingStore persists finalized bookings.
// Failures are returned as *domain.PersistenceError so callers can tell
// a constraint violation (terminal) from a connection problem (retryable).
type BookingStore interface {
	// Create stores the booking and returns its assigned ID
	Create(ctx context.Context, booking *domain.Booking) (string, error)

	// Get retrieves a booking by ID
	Get(ctx context.Context, id string) (*domain.Booking, error)
}
