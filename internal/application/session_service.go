package application

import (
	"context"
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/auth"
	"github.com/PulseFit-Club/service-scheduling/internal/domain"
	bookingDomain "github.com/PulseFit-Club/service-scheduling/internal/domain/booking"
	sessionDomain "github.com/PulseFit-Club/service-scheduling/internal/domain/session"
	"github.com/PulseFit-Club/service-scheduling/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSessionRequest holds the data needed to create a new session.
type CreateSessionRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
	Capacity    int       `json:"capacity" binding:"required"`
}

// UpdateSessionRequest holds a partial edit of a scheduled session. Nil
// fields are left unchanged; the time window is validated on the merged view
// of changed and stored fields.
type UpdateSessionRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity"`
}

// SessionDTO is the response representation of a session.
type SessionDTO struct {
	ID              uuid.UUID  `json:"id"`
	TrainerID       uuid.UUID  `json:"trainer_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Location        string     `json:"location,omitempty"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          time.Time  `json:"ends_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Capacity        int        `json:"capacity"`
	Status          string     `json:"status"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SessionService orchestrates session lifecycle use cases. Edits that can
// interact with concurrent reservations (capacity, status) run under the
// same session row lock the reservation protocol takes.
type SessionService struct {
	sessions sessionDomain.SessionRepository
	bookings bookingDomain.BookingRepository
	tx       domain.TxManager
	audit    AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessions sessionDomain.SessionRepository,
	bookings bookingDomain.BookingRepository,
	tx domain.TxManager,
	audit AuditLogger,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		bookings: bookings,
		tx:       tx,
		audit:    audit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession creates a new scheduled session owned by the trainer.
func (s *SessionService) CreateSession(ctx context.Context, trainerID uuid.UUID, req CreateSessionRequest) (*SessionDTO, error) {
	sess, err := sessionDomain.NewSession(
		trainerID,
		req.Title,
		req.Description,
		req.Location,
		req.StartsAt,
		req.EndsAt,
		req.Capacity,
	)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, AuditSessionCreate, trainerID, sess.ID(), map[string]interface{}{
		"starts_at": sess.StartsAt(),
		"capacity":  sess.Capacity(),
	})

	result := toSessionDTO(sess)
	return &result, nil
}

// UpdateSession applies a partial edit to a scheduled session. Capacity
// edits are validated against the confirmed-booking count observed under the
// session row lock, so a concurrent reservation cannot slip between the
// check and the write.
func (s *SessionService) UpdateSession(ctx context.Context, sessionID, actorID uuid.UUID, actorRole string, req UpdateSessionRequest) (*SessionDTO, error) {
	var updated *sessionDomain.Session

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		sess, err := s.sessions.FindByIDForUpdate(txCtx, sessionID)
		if err != nil {
			return err
		}
		if actorRole != auth.RoleAdmin && actorID != sess.TrainerID() {
			return domain.NewForbiddenError("only the owning trainer can edit this session")
		}

		if err := sess.UpdateDetails(req.Title, req.Description, req.Location); err != nil {
			return err
		}
		if err := sess.Reschedule(req.StartsAt, req.EndsAt); err != nil {
			return err
		}
		if req.Capacity != nil {
			confirmed, err := s.bookings.CountConfirmedBySession(txCtx, sessionID)
			if err != nil {
				return err
			}
			if err := sess.Resize(*req.Capacity, confirmed); err != nil {
				return err
			}
		}

		sess.IncrementVersion()
		if err := s.sessions.Update(txCtx, sess); err != nil {
			return err
		}
		updated = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, AuditSessionUpdate, actorID, updated.ID(), map[string]interface{}{
		"capacity":  updated.Capacity(),
		"starts_at": updated.StartsAt(),
		"ends_at":   updated.EndsAt(),
	})

	result := toSessionDTO(updated)
	return &result, nil
}

// CancelSession transitions a scheduled session to cancelled. Existing
// bookings are not cascaded; downstream consumers of the SESSION_CANCEL
// audit event notify affected clients.
func (s *SessionService) CancelSession(ctx context.Context, sessionID, actorID uuid.UUID, actorRole, reason string) (*SessionDTO, error) {
	return s.terminate(ctx, sessionID, actorID, actorRole, func(sess *sessionDomain.Session) error {
		return sess.Cancel(reason)
	}, AuditSessionCancel, map[string]interface{}{"reason": reason})
}

// CompleteSession transitions a scheduled session to completed.
func (s *SessionService) CompleteSession(ctx context.Context, sessionID, actorID uuid.UUID, actorRole string) (*SessionDTO, error) {
	return s.terminate(ctx, sessionID, actorID, actorRole, func(sess *sessionDomain.Session) error {
		return sess.Complete()
	}, AuditSessionComplete, nil)
}

func (s *SessionService) terminate(
	ctx context.Context,
	sessionID, actorID uuid.UUID,
	actorRole string,
	transition func(*sessionDomain.Session) error,
	auditType string,
	metadata map[string]interface{},
) (*SessionDTO, error) {
	var updated *sessionDomain.Session

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		sess, err := s.sessions.FindByIDForUpdate(txCtx, sessionID)
		if err != nil {
			return err
		}
		if actorRole != auth.RoleAdmin && actorID != sess.TrainerID() {
			return domain.NewForbiddenError("only the owning trainer can change this session")
		}

		if err := transition(sess); err != nil {
			return err
		}
		sess.IncrementVersion()
		if err := s.sessions.Update(txCtx, sess); err != nil {
			return err
		}
		updated = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, auditType, actorID, updated.ID(), metadata)

	result := toSessionDTO(updated)
	return &result, nil
}

// GetSession retrieves a single session by ID.
func (s *SessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionDTO, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result := toSessionDTO(sess)
	return &result, nil
}

// GetAvailability derives the public availability view from the session's
// capacity and its live confirmed-booking count. An observed negative
// spots_left means the capacity invariant was violated by a past write; it
// is clamped for callers and surfaced as a consistency alarm.
func (s *SessionService) GetAvailability(ctx context.Context, sessionID uuid.UUID) (*sessionDomain.Availability, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.bookings.CountConfirmedBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	av, overbooked := sessionDomain.ComputeAvailability(sess.Capacity(), confirmed)
	if overbooked {
		observability.RecordOverbookedObservation()
		s.logger.Error("session has more confirmed bookings than capacity",
			zap.String("session_id", sessionID.String()),
			zap.Int("capacity", sess.Capacity()),
			zap.Int64("confirmed", confirmed),
		)
	}
	return &av, nil
}

// GetTrainerSessions retrieves paginated sessions owned by a trainer.
func (s *SessionService) GetTrainerSessions(ctx context.Context, trainerID uuid.UUID, page, limit int) (*domain.PaginatedResult[SessionDTO], error) {
	sessions, total, err := s.sessions.FindByTrainerID(ctx, trainerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toSessionDTOs(sessions), total, page, limit)
	return &result, nil
}

// ListUpcomingSessions retrieves paginated bookable sessions.
func (s *SessionService) ListUpcomingSessions(ctx context.Context, page, limit int) (*domain.PaginatedResult[SessionDTO], error) {
	sessions, total, err := s.sessions.ListUpcoming(ctx, s.now(), page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toSessionDTOs(sessions), total, page, limit)
	return &result, nil
}

// --- Helpers ---

func toSessionDTO(sess *sessionDomain.Session) SessionDTO {
	return SessionDTO{
		ID:              sess.ID(),
		TrainerID:       sess.TrainerID(),
		Title:           sess.Title(),
		Description:     sess.Description(),
		Location:        sess.Location(),
		StartsAt:        sess.StartsAt(),
		EndsAt:          sess.EndsAt(),
		DurationMinutes: sess.DurationMinutes(),
		Capacity:        sess.Capacity(),
		Status:          string(sess.Status()),
		CancelReason:    sess.CancelReason(),
		CancelledAt:     sess.CancelledAt(),
		CompletedAt:     sess.CompletedAt(),
		Version:         sess.Version(),
		CreatedAt:       sess.CreatedAt(),
		UpdatedAt:       sess.UpdatedAt(),
	}
}

func toSessionDTOs(sessions []*sessionDomain.Session) []SessionDTO {
	dtos := make([]SessionDTO, len(sessions))
	for i, sess := range sessions {
		dtos[i] = toSessionDTO(sess)
	}
	return dtos
}
