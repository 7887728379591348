package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRepository defines the persistence contract for session aggregates.
type SessionRepository interface {
	// FindByID retrieves a session by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// FindByIDForUpdate retrieves a session and locks its row for the
	// remainder of the surrounding transaction. Every mutation of a session's
	// capacity or of its confirmed-booking set must hold this lock.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Session, error)

	// FindByTrainerID retrieves sessions owned by a trainer with pagination.
	FindByTrainerID(ctx context.Context, trainerID uuid.UUID, page, limit int) ([]*Session, int64, error)

	// ListUpcoming retrieves scheduled sessions starting after the given
	// instant with pagination.
	ListUpcoming(ctx context.Context, after time.Time, page, limit int) ([]*Session, int64, error)

	// Save persists a new session.
	Save(ctx context.Context, sess *Session) error

	// Update persists changes to an existing session with optimistic locking.
	Update(ctx context.Context, sess *Session) error
}
