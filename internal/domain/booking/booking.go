package booking

import (
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/domain"
	"github.com/google/uuid"
)

// Booking is the aggregate root for a client's reservation against a session.
type Booking struct {
	id           uuid.UUID
	sessionID    uuid.UUID
	clientID     uuid.UUID
	status       BookingStatus
	bookedAt     time.Time
	cancelledAt  *time.Time
	cancelReason string
	markedAt     *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a confirmed Booking for the given (session, client)
// pair. The reservation protocol is responsible for having verified, under
// the session row lock, that the pair is unique and a seat is available.
func NewBooking(sessionID, clientID uuid.UUID) (*Booking, error) {
	if sessionID == uuid.Nil {
		return nil, domain.NewValidationError("session ID is required")
	}
	if clientID == uuid.Nil {
		return nil, domain.NewValidationError("client ID is required")
	}

	now := time.Now().UTC()
	return &Booking{
		id:        uuid.New(),
		sessionID: sessionID,
		clientID:  clientID,
		status:    StatusConfirmed,
		bookedAt:  now,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	sessionID uuid.UUID,
	clientID uuid.UUID,
	status BookingStatus,
	bookedAt time.Time,
	cancelledAt *time.Time,
	cancelReason string,
	markedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:           id,
		sessionID:    sessionID,
		clientID:     clientID,
		status:       status,
		bookedAt:     bookedAt,
		cancelledAt:  cancelledAt,
		cancelReason: cancelReason,
		markedAt:     markedAt,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// SessionID returns the booked session's ID.
func (b *Booking) SessionID() uuid.UUID { return b.sessionID }

// ClientID returns the booking client's user ID.
func (b *Booking) ClientID() uuid.UUID { return b.clientID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// BookedAt returns the time the seat was reserved.
func (b *Booking) BookedAt() time.Time { return b.bookedAt }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelReason returns the cancellation reason.
func (b *Booking) CancelReason() string { return b.cancelReason }

// MarkedAt returns the time attendance was annotated.
func (b *Booking) MarkedAt() *time.Time { return b.markedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Cancel transitions the booking to cancelled, freeing its seat. Cancelling
// an already-cancelled booking fails with AlreadyCancelled so a seat can
// never be freed twice.
func (b *Booking) Cancel(reason string) error {
	if b.status == StatusCancelled {
		return domain.NewDomainError(domain.CodeAlreadyCancelled, "booking is already cancelled")
	}
	if !b.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelReason = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// MarkAttended records that the client attended the session.
func (b *Booking) MarkAttended() error {
	return b.mark(StatusAttended)
}

// MarkNoShow records that the client did not attend the session.
func (b *Booking) MarkNoShow() error {
	return b.mark(StatusNoShow)
}

func (b *Booking) mark(target BookingStatus) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	now := time.Now().UTC()
	b.status = target
	b.markedAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
