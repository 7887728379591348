package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDForUpdate retrieves a booking and locks its row for the
	// remainder of the surrounding transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)

	// CountConfirmedBySession returns the number of confirmed bookings for a
	// session. Called inside the reservation transaction it observes the
	// locked, current state.
	CountConfirmedBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)

	// HasConfirmed reports whether the client already holds a confirmed
	// booking for the session.
	HasConfirmed(ctx context.Context, sessionID, clientID uuid.UUID) (bool, error)

	// FindByClientID retrieves a client's bookings with pagination.
	FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindBySessionID retrieves all bookings for a session (trainer roster).
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*Booking, error)

	// FindConfirmedUpcomingByClient retrieves the client's confirmed bookings
	// whose sessions start after the given instant.
	FindConfirmedUpcomingByClient(ctx context.Context, clientID uuid.UUID, after time.Time) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, bk *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, bk *Booking) error
}
