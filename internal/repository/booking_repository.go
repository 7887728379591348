package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/domain"
	bookingDomain "github.com/PulseFit-Club/service-scheduling/internal/domain/booking"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table. A partial unique
// index on (session_id, client_id) WHERE status = 'confirmed' backs the
// no-duplicate-reservation invariant at the store level (see migrations).
type BookingModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SessionID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	ClientID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	Status       string     `gorm:"not null;size:30;index"`
	BookedAt     time.Time  `gorm:"not null"`
	CancelledAt  *time.Time `gorm:""`
	CancelReason string     `gorm:"size:500"`
	MarkedAt     *time.Time `gorm:""`
	Version      int64      `gorm:"not null;default:1"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByIDForUpdate retrieves a booking with a SELECT ... FOR UPDATE row lock.
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	err := dbFrom(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to lock booking row: %w", err)
	}
	return toDomainBooking(&model)
}

// CountConfirmedBySession returns the number of confirmed bookings for a session.
func (r *GormBookingRepository) CountConfirmedBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).
		Model(&BookingModel{}).
		Where("session_id = ? AND status = ?", sessionID, bookingDomain.StatusConfirmed).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}
	return count, nil
}

// HasConfirmed reports whether the client already holds a confirmed booking
// for the session.
func (r *GormBookingRepository) HasConfirmed(ctx context.Context, sessionID, clientID uuid.UUID) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).
		Model(&BookingModel{}).
		Where("session_id = ? AND client_id = ? AND status = ?", sessionID, clientID, bookingDomain.StatusConfirmed).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing booking: %w", err)
	}
	return count > 0, nil
}

// FindByClientID retrieves a client's bookings with pagination.
func (r *GormBookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	db := dbFrom(ctx, r.db)

	var total int64
	if err := db.Model(&BookingModel{}).Where("client_id = ?", clientID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count client bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := db.
		Where("client_id = ?", clientID).
		Order("booked_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find client bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindBySessionID retrieves all bookings for a session.
func (r *GormBookingRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := dbFrom(ctx, r.db).
		Where("session_id = ?", sessionID).
		Order("booked_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find session bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindConfirmedUpcomingByClient retrieves the client's confirmed bookings
// whose sessions start after the given instant.
func (r *GormBookingRepository) FindConfirmedUpcomingByClient(ctx context.Context, clientID uuid.UUID, after time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := dbFrom(ctx, r.db).
		Joins("JOIN sessions ON sessions.id = bookings.session_id").
		Where("bookings.client_id = ? AND bookings.status = ? AND sessions.starts_at > ?",
			clientID, bookingDomain.StatusConfirmed, after).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find upcoming client bookings: %w", err)
	}
	return toDomainBookings(models)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	db := dbFrom(ctx, r.db)

	var total int64
	if err := db.Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := db.
		Order("booked_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := dbFrom(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		// The partial unique index rejects a second confirmed booking for the
		// same (session, client) pair if two transactions ever race past the
		// application check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewDomainError(domain.CodeAlreadyBooked, "client already has a confirmed booking for this session")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := bk.Version() - 1
	result := dbFrom(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"cancelled_at":  model.CancelledAt,
			"cancel_reason": model.CancelReason,
			"marked_at":     model.MarkedAt,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructBooking(
		m.ID,
		m.SessionID,
		m.ClientID,
		status,
		m.BookedAt,
		m.CancelledAt,
		m.CancelReason,
		m.MarkedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
