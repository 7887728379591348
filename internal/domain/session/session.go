package session

import (
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/domain"
	"github.com/google/uuid"
)

// Session is the aggregate root for a trainer's capacity-bounded training slot.
type Session struct {
	id           uuid.UUID
	trainerID    uuid.UUID
	title        string
	description  string
	location     string
	startsAt     time.Time
	endsAt       time.Time
	capacity     int
	status       SessionStatus
	cancelReason string
	cancelledAt  *time.Time
	completedAt  *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewSession creates a new scheduled Session owned by the given trainer.
func NewSession(
	trainerID uuid.UUID,
	title string,
	description string,
	location string,
	startsAt time.Time,
	endsAt time.Time,
	capacity int,
) (*Session, error) {
	if trainerID == uuid.Nil {
		return nil, domain.NewValidationError("trainer ID is required")
	}
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if startsAt.IsZero() || endsAt.IsZero() {
		return nil, domain.NewValidationError("starts_at and ends_at are required")
	}
	if !endsAt.After(startsAt) {
		return nil, domain.NewValidationError("ends_at must be after starts_at")
	}
	if !startsAt.After(time.Now().UTC()) {
		return nil, domain.NewValidationError("starts_at must be in the future")
	}
	if capacity < 1 {
		return nil, domain.NewValidationError("capacity must be at least 1")
	}

	now := time.Now().UTC()
	return &Session{
		id:          uuid.New(),
		trainerID:   trainerID,
		title:       title,
		description: description,
		location:    location,
		startsAt:    startsAt.UTC(),
		endsAt:      endsAt.UTC(),
		capacity:    capacity,
		status:      StatusScheduled,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructSession rebuilds a Session from persistence data (no validation).
func ReconstructSession(
	id uuid.UUID,
	trainerID uuid.UUID,
	title string,
	description string,
	location string,
	startsAt time.Time,
	endsAt time.Time,
	capacity int,
	status SessionStatus,
	cancelReason string,
	cancelledAt *time.Time,
	completedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Session {
	return &Session{
		id:           id,
		trainerID:    trainerID,
		title:        title,
		description:  description,
		location:     location,
		startsAt:     startsAt,
		endsAt:       endsAt,
		capacity:     capacity,
		status:       status,
		cancelReason: cancelReason,
		cancelledAt:  cancelledAt,
		completedAt:  completedAt,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// TrainerID returns the owning trainer's user ID.
func (s *Session) TrainerID() uuid.UUID { return s.trainerID }

// Title returns the session title.
func (s *Session) Title() string { return s.title }

// Description returns the session description.
func (s *Session) Description() string { return s.description }

// Location returns the session location.
func (s *Session) Location() string { return s.location }

// StartsAt returns the start of the scheduling window.
func (s *Session) StartsAt() time.Time { return s.startsAt }

// EndsAt returns the end of the scheduling window.
func (s *Session) EndsAt() time.Time { return s.endsAt }

// DurationMinutes returns the window length in minutes, derived from the
// window so it can never disagree with it.
func (s *Session) DurationMinutes() int {
	return int(s.endsAt.Sub(s.startsAt) / time.Minute)
}

// Capacity returns the maximum number of confirmed bookings.
func (s *Session) Capacity() int { return s.capacity }

// Status returns the current session status.
func (s *Session) Status() SessionStatus { return s.status }

// CancelReason returns the cancellation reason, if cancelled.
func (s *Session) CancelReason() string { return s.cancelReason }

// CancelledAt returns the time the session was cancelled.
func (s *Session) CancelledAt() *time.Time { return s.cancelledAt }

// CompletedAt returns the time the session was completed.
func (s *Session) CompletedAt() *time.Time { return s.completedAt }

// Version returns the entity version for optimistic locking.
func (s *Session) Version() int64 { return s.version }

// CreatedAt returns the creation timestamp.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// --- Behavior ---

// IsBookable reports whether the session can accept reservations at the
// given instant: still scheduled and strictly before its start.
func (s *Session) IsBookable(now time.Time) bool {
	return s.status == StatusScheduled && s.startsAt.After(now)
}

// HasStarted reports whether the session window has begun at the given instant.
func (s *Session) HasStarted(now time.Time) bool {
	return !s.startsAt.After(now)
}

// UpdateDetails edits title, description, and location in place. Nil fields
// are left unchanged. Only scheduled sessions may be edited.
func (s *Session) UpdateDetails(title, description, location *string) error {
	if s.status != StatusScheduled {
		return domain.NewInvalidStateError(string(s.status), string(StatusScheduled))
	}
	if title != nil {
		if *title == "" {
			return domain.NewValidationError("title cannot be empty")
		}
		s.title = *title
	}
	if description != nil {
		s.description = *description
	}
	if location != nil {
		s.location = *location
	}
	s.updatedAt = time.Now().UTC()
	return nil
}

// Reschedule moves the session window. Nil fields keep their stored value;
// the merged pair is validated as a whole, so editing only one end can never
// silently produce an inverted window. A session whose stored window has
// already begun cannot be moved to new times.
func (s *Session) Reschedule(startsAt, endsAt *time.Time) error {
	if s.status != StatusScheduled {
		return domain.NewInvalidStateError(string(s.status), string(StatusScheduled))
	}
	if startsAt == nil && endsAt == nil {
		return nil
	}
	if s.HasStarted(time.Now().UTC()) {
		return domain.NewDomainError(domain.CodeSessionStarted, "session has already started")
	}

	newStart := s.startsAt
	newEnd := s.endsAt
	if startsAt != nil {
		newStart = startsAt.UTC()
	}
	if endsAt != nil {
		newEnd = endsAt.UTC()
	}
	if !newEnd.After(newStart) {
		return domain.NewValidationError("ends_at must be after starts_at")
	}
	if !newStart.After(time.Now().UTC()) {
		return domain.NewValidationError("starts_at must be in the future")
	}

	s.startsAt = newStart
	s.endsAt = newEnd
	s.updatedAt = time.Now().UTC()
	return nil
}

// Resize changes the session capacity. confirmedCount is the current number
// of confirmed bookings; capacity may never drop below it. The caller must
// obtain confirmedCount inside the same transaction that persists the resize.
func (s *Session) Resize(capacity int, confirmedCount int64) error {
	if s.status != StatusScheduled {
		return domain.NewInvalidStateError(string(s.status), string(StatusScheduled))
	}
	if capacity < 1 {
		return domain.NewValidationError("capacity must be at least 1")
	}
	if int64(capacity) < confirmedCount {
		return domain.NewDomainError(domain.CodeInvalidCapacity,
			"capacity cannot be reduced below the current confirmed booking count")
	}
	s.capacity = capacity
	s.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the session to cancelled with a reason. Cancelling does
// not cascade to individual bookings; those keep their own lifecycle.
func (s *Session) Cancel(reason string) error {
	if !s.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(s.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	s.status = StatusCancelled
	s.cancelReason = reason
	s.cancelledAt = &now
	s.updatedAt = now
	return nil
}

// Complete transitions the session to completed.
func (s *Session) Complete() error {
	if !s.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(s.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	s.status = StatusCompleted
	s.completedAt = &now
	s.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (s *Session) IncrementVersion() {
	s.version++
	s.updatedAt = time.Now().UTC()
}
