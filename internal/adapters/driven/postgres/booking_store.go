package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/lib/pq"
)

// Verify interface compliance
var _ driven.BookingStore = (*BookingStore)(nil)

// BookingStore implements driven.BookingStore using PostgreSQL.
// A slot is unique on (date, time); a second booking of the same slot is
// a terminal failure.
type BookingStore struct {
	db *DB
}

// NewBookingStore creates a new BookingStore
func NewBookingStore(db *DB) *BookingStore {
	return &BookingStore{db: db}
}

// Create stores the booking. An ID already set by the caller is kept,
// so repeating a create whose commit outcome was unknown does not
// produce a second row.
func (s *BookingStore) Create(ctx context.Context, booking *domain.Booking) (string, error) {
	if booking.ID == "" {
		booking.ID = domain.GenerateID()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO bookings (id, session_id, full_name, email, booking_date, booking_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		booking.ID,
		booking.SessionID,
		booking.Name,
		booking.Email,
		booking.Date,
		booking.Time,
		booking.CreatedAt,
	)
	if err != nil {
		return "", classifyBookingError(err)
	}
	return booking.ID, nil
}

// Get retrieves a booking by ID
func (s *BookingStore) Get(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT id, session_id, full_name, email, to_char(booking_date, 'YYYY-MM-DD'), booking_time, created_at
		FROM bookings
		WHERE id = $1
	`

	var b domain.Booking
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID,
		&b.SessionID,
		&b.Name,
		&b.Email,
		&b.Date,
		&b.Time,
		&b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// classifyBookingError separates failures a later attempt may fix from
// ones it never will.
// A taken slot is reported as domain.ErrAlreadyExists.
func classifyBookingError(err error) *domain.PersistenceError {
	if isUniqueViolation(err) {
		return &domain.PersistenceError{Err: fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)}
	}
	return &domain.PersistenceError{Retryable: isRetryablePGError(err), Err: err}
}

func isRetryablePGError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", // connection_exception
			"40", // transaction_rollback (serialization, deadlock)
			"53", // insufficient_resources
			"57": // operator_intervention (admin shutdown, query canceled)
			return true
		}
		return false
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
