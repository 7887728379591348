package application

import (
	"context"
	"fmt"
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/auth"
	"github.com/PulseFit-Club/service-scheduling/internal/domain"
	bookingDomain "github.com/PulseFit-Club/service-scheduling/internal/domain/booking"
	sessionDomain "github.com/PulseFit-Club/service-scheduling/internal/domain/session"
	"github.com/PulseFit-Club/service-scheduling/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Audit event types emitted by this service.
const (
	AuditBookingCreate     = "BOOKING_CREATE"
	AuditBookingCancel     = "BOOKING_CANCEL"
	AuditBookingAttendance = "BOOKING_ATTENDANCE"
	AuditSessionCreate     = "SESSION_CREATE"
	AuditSessionUpdate     = "SESSION_UPDATE"
	AuditSessionCancel     = "SESSION_CANCEL"
	AuditSessionComplete   = "SESSION_COMPLETE"
)

// AuditLogger is the fire-and-forget audit sink. Implementations must never
// fail the calling operation; delivery problems are logged, not returned.
type AuditLogger interface {
	Emit(ctx context.Context, eventType string, actorID, resourceID uuid.UUID, metadata map[string]interface{})
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID           uuid.UUID  `json:"id"`
	SessionID    uuid.UUID  `json:"session_id"`
	ClientID     uuid.UUID  `json:"client_id"`
	Status       string     `json:"status"`
	BookedAt     time.Time  `json:"booked_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	MarkedAt     *time.Time `json:"marked_at,omitempty"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BookingService orchestrates seat reservation, cancellation, and attendance
// use cases. All capacity-affecting work runs inside a single transaction
// holding the session row lock, so the capacity check and the write it
// guards are one atomic unit.
type BookingService struct {
	sessions sessionDomain.SessionRepository
	bookings bookingDomain.BookingRepository
	tx       domain.TxManager
	audit    AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	sessions sessionDomain.SessionRepository,
	bookings bookingDomain.BookingRepository,
	tx domain.TxManager,
	audit AuditLogger,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		sessions: sessions,
		bookings: bookings,
		tx:       tx,
		audit:    audit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Reserve creates a confirmed booking for (sessionID, clientID) or fails
// with a typed reason. The five precondition checks and the insert are
// evaluated under the session's row lock inside one transaction: the first
// transaction to commit under the capacity check wins, later ones re-check
// against committed state and fail with SESSION_FULL.
func (s *BookingService) Reserve(ctx context.Context, sessionID, clientID uuid.UUID) (*BookingDTO, error) {
	var created *bookingDomain.Booking

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		sess, err := s.sessions.FindByIDForUpdate(txCtx, sessionID)
		if err != nil {
			return err
		}

		now := s.now()
		if sess.Status() != sessionDomain.StatusScheduled {
			return domain.NewDomainError(domain.CodeSessionNotAvailable, "session is not open for booking")
		}
		if sess.HasStarted(now) {
			return domain.NewDomainError(domain.CodeSessionStarted, "session has already started")
		}
		if sess.TrainerID() == clientID {
			return domain.NewDomainError(domain.CodeSelfBooking, "trainers cannot book their own sessions")
		}

		hasBooking, err := s.bookings.HasConfirmed(txCtx, sessionID, clientID)
		if err != nil {
			return err
		}
		if hasBooking {
			return domain.NewDomainError(domain.CodeAlreadyBooked, "client already has a confirmed booking for this session")
		}

		confirmed, err := s.bookings.CountConfirmedBySession(txCtx, sessionID)
		if err != nil {
			return err
		}
		if confirmed >= int64(sess.Capacity()) {
			return domain.NewDomainError(domain.CodeSessionFull, "session is full")
		}

		bk, err := bookingDomain.NewBooking(sessionID, clientID)
		if err != nil {
			return err
		}
		if err := s.bookings.Save(txCtx, bk); err != nil {
			return err
		}
		created = bk
		return nil
	})
	if err != nil {
		observability.RecordReservation(string(domain.CodeOf(err)))
		return nil, err
	}

	observability.RecordReservation("success")
	s.audit.Emit(ctx, AuditBookingCreate, clientID, created.ID(), map[string]interface{}{
		"session_id": sessionID.String(),
		"booked_at":  created.BookedAt(),
	})

	result := toBookingDTO(created)
	return &result, nil
}

// Cancel flips a confirmed booking to cancelled, freeing its seat. The actor
// must be the booking's client, the session's trainer, or an admin.
// Cancelling twice yields ALREADY_CANCELLED; the seat is freed exactly once
// because availability derives from confirmed-status rows.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID uuid.UUID, actorRole, reason string) (*BookingDTO, error) {
	var cancelled *bookingDomain.Booking

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		bk, err := s.bookings.FindByIDForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}

		sess, err := s.sessions.FindByID(txCtx, bk.SessionID())
		if err != nil {
			return err
		}

		// Authorization runs before any state inspection. The started-session
		// guard applies only while the booking still consumes a seat; a repeat
		// cancel after the session starts reports AlreadyCancelled.
		if actorRole != auth.RoleAdmin && actorID != bk.ClientID() && actorID != sess.TrainerID() {
			return domain.NewForbiddenError("not allowed to cancel this booking")
		}
		if bk.Status() == bookingDomain.StatusConfirmed && sess.HasStarted(s.now()) {
			return domain.NewDomainError(domain.CodeSessionStarted, "session has already started")
		}

		if err := bk.Cancel(reason); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := s.bookings.Update(txCtx, bk); err != nil {
			return err
		}
		cancelled = bk
		return nil
	})
	if err != nil {
		observability.RecordCancellation(string(domain.CodeOf(err)))
		return nil, err
	}

	observability.RecordCancellation("success")
	s.audit.Emit(ctx, AuditBookingCancel, actorID, cancelled.ID(), map[string]interface{}{
		"session_id": cancelled.SessionID().String(),
		"client_id":  cancelled.ClientID().String(),
		"reason":     reason,
	})

	result := toBookingDTO(cancelled)
	return &result, nil
}

// MarkAttendance annotates a confirmed booking as attended or no_show. Only
// the session's trainer or an admin may annotate, and only once the session
// window has begun. This is a post-hoc bookkeeping step with no capacity
// effect; attended and no_show rows do not consume seats going forward
// because the session is already underway.
func (s *BookingService) MarkAttendance(ctx context.Context, bookingID, actorID uuid.UUID, actorRole string, attended bool) (*BookingDTO, error) {
	var marked *bookingDomain.Booking

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		bk, err := s.bookings.FindByIDForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}

		sess, err := s.sessions.FindByID(txCtx, bk.SessionID())
		if err != nil {
			return err
		}

		if actorRole != auth.RoleAdmin && actorID != sess.TrainerID() {
			return domain.NewForbiddenError("only the session trainer can mark attendance")
		}
		if !sess.HasStarted(s.now()) {
			return domain.NewValidationError("attendance cannot be marked before the session starts")
		}

		if attended {
			err = bk.MarkAttended()
		} else {
			err = bk.MarkNoShow()
		}
		if err != nil {
			return err
		}

		bk.IncrementVersion()
		if err := s.bookings.Update(txCtx, bk); err != nil {
			return err
		}
		marked = bk
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, AuditBookingAttendance, actorID, marked.ID(), map[string]interface{}{
		"session_id": marked.SessionID().String(),
		"status":     string(marked.Status()),
	})

	result := toBookingDTO(marked)
	return &result, nil
}

// CancelAllForClient cancels every future confirmed booking held by the
// client. Used when an identity event reports the account as deactivated.
// Each booking is cancelled in its own transaction; one failure does not
// block the rest.
func (s *BookingService) CancelAllForClient(ctx context.Context, clientID uuid.UUID, reason string) error {
	bookings, err := s.bookings.FindConfirmedUpcomingByClient(ctx, clientID, s.now())
	if err != nil {
		return fmt.Errorf("failed to list client bookings: %w", err)
	}

	for _, bk := range bookings {
		if _, err := s.Cancel(ctx, bk.ID(), clientID, auth.RoleAdmin, reason); err != nil {
			s.logger.Error("failed to cancel booking for deactivated client",
				zap.String("booking_id", bk.ID().String()),
				zap.String("client_id", clientID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// GetBooking retrieves a single booking. Clients see their own bookings;
// the session's trainer and admins see any booking for their sessions.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID, actorRole string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if actorRole != auth.RoleAdmin && actorID != bk.ClientID() {
		sess, err := s.sessions.FindByID(ctx, bk.SessionID())
		if err != nil {
			return nil, err
		}
		if actorID != sess.TrainerID() {
			return nil, domain.NewForbiddenError("not allowed to view this booking")
		}
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// GetClientBookings retrieves paginated bookings for a client.
func (s *BookingService) GetClientBookings(ctx context.Context, clientID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByClientID(ctx, clientID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetSessionRoster retrieves all bookings for a session. Only the session's
// trainer or an admin may view the roster.
func (s *BookingService) GetSessionRoster(ctx context.Context, sessionID, actorID uuid.UUID, actorRole string) ([]BookingDTO, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if actorRole != auth.RoleAdmin && actorID != sess.TrainerID() {
		return nil, domain.NewForbiddenError("not allowed to view this session's bookings")
	}

	bookings, err := s.bookings.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:           bk.ID(),
		SessionID:    bk.SessionID(),
		ClientID:     bk.ClientID(),
		Status:       string(bk.Status()),
		BookedAt:     bk.BookedAt(),
		CancelledAt:  bk.CancelledAt(),
		CancelReason: bk.CancelReason(),
		MarkedAt:     bk.MarkedAt(),
		Version:      bk.Version(),
		CreatedAt:    bk.CreatedAt(),
		UpdatedAt:    bk.UpdatedAt(),
	}
}
