package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/domain"
	sessionDomain "github.com/PulseFit-Club/service-scheduling/internal/domain/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionModel is the GORM model for the sessions table.
type SessionModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TrainerID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	Title        string     `gorm:"not null;size:200"`
	Description  string     `gorm:"size:2000"`
	Location     string     `gorm:"size:300"`
	StartsAt     time.Time  `gorm:"not null;index"`
	EndsAt       time.Time  `gorm:"not null"`
	Capacity     int        `gorm:"not null;check:capacity >= 1"`
	Status       string     `gorm:"not null;size:30;index"`
	CancelReason string     `gorm:"size:500"`
	CancelledAt  *time.Time `gorm:""`
	CompletedAt  *time.Time `gorm:""`
	Version      int64      `gorm:"not null;default:1"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (SessionModel) TableName() string {
	return "sessions"
}

// GormSessionRepository is the GORM-based implementation of SessionRepository.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// FindByID retrieves a session by its unique identifier.
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*sessionDomain.Session, error) {
	var model SessionModel
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Session", id.String())
		}
		return nil, fmt.Errorf("failed to find session by ID: %w", err)
	}
	return toDomainSession(&model)
}

// FindByIDForUpdate retrieves a session with a SELECT ... FOR UPDATE row
// lock. Must be called inside a transaction; the lock is held until commit
// or rollback, serializing all capacity-affecting work on the session.
func (r *GormSessionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sessionDomain.Session, error) {
	var model SessionModel
	err := dbFrom(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Session", id.String())
		}
		return nil, fmt.Errorf("failed to lock session row: %w", err)
	}
	return toDomainSession(&model)
}

// FindByTrainerID retrieves sessions owned by a trainer with pagination.
func (r *GormSessionRepository) FindByTrainerID(ctx context.Context, trainerID uuid.UUID, page, limit int) ([]*sessionDomain.Session, int64, error) {
	db := dbFrom(ctx, r.db)

	var total int64
	if err := db.Model(&SessionModel{}).Where("trainer_id = ?", trainerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trainer sessions: %w", err)
	}

	var models []SessionModel
	offset := (page - 1) * limit
	if err := db.
		Where("trainer_id = ?", trainerID).
		Order("starts_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find trainer sessions: %w", err)
	}

	return toDomainSessions(models, total)
}

// ListUpcoming retrieves scheduled sessions starting after the given instant.
func (r *GormSessionRepository) ListUpcoming(ctx context.Context, after time.Time, page, limit int) ([]*sessionDomain.Session, int64, error) {
	db := dbFrom(ctx, r.db)
	query := db.Model(&SessionModel{}).
		Where("status = ? AND starts_at > ?", sessionDomain.StatusScheduled, after)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count upcoming sessions: %w", err)
	}

	var models []SessionModel
	offset := (page - 1) * limit
	if err := db.
		Where("status = ? AND starts_at > ?", sessionDomain.StatusScheduled, after).
		Order("starts_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list upcoming sessions: %w", err)
	}

	return toDomainSessions(models, total)
}

// Save persists a new session.
func (r *GormSessionRepository) Save(ctx context.Context, sess *sessionDomain.Session) error {
	model := toSessionModel(sess)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Update persists changes to an existing session with optimistic locking.
func (r *GormSessionRepository) Update(ctx context.Context, sess *sessionDomain.Session) error {
	model := toSessionModel(sess)

	// Only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := sess.Version() - 1
	result := dbFrom(ctx, r.db).
		Model(&SessionModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":         model.Title,
			"description":   model.Description,
			"location":      model.Location,
			"starts_at":     model.StartsAt,
			"ends_at":       model.EndsAt,
			"capacity":      model.Capacity,
			"status":        model.Status,
			"cancel_reason": model.CancelReason,
			"cancelled_at":  model.CancelledAt,
			"completed_at":  model.CompletedAt,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("session was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toSessionModel(sess *sessionDomain.Session) *SessionModel {
	return &SessionModel{
		ID:           sess.ID(),
		TrainerID:    sess.TrainerID(),
		Title:        sess.Title(),
		Description:  sess.Description(),
		Location:     sess.Location(),
		StartsAt:     sess.StartsAt(),
		EndsAt:       sess.EndsAt(),
		Capacity:     sess.Capacity(),
		Status:       string(sess.Status()),
		CancelReason: sess.CancelReason(),
		CancelledAt:  sess.CancelledAt(),
		CompletedAt:  sess.CompletedAt(),
		Version:      sess.Version(),
		CreatedAt:    sess.CreatedAt(),
		UpdatedAt:    sess.UpdatedAt(),
	}
}

func toDomainSession(m *SessionModel) (*sessionDomain.Session, error) {
	status, err := sessionDomain.ParseSessionStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return sessionDomain.ReconstructSession(
		m.ID,
		m.TrainerID,
		m.Title,
		m.Description,
		m.Location,
		m.StartsAt,
		m.EndsAt,
		m.Capacity,
		status,
		m.CancelReason,
		m.CancelledAt,
		m.CompletedAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainSessions(models []SessionModel, total int64) ([]*sessionDomain.Session, int64, error) {
	sessions := make([]*sessionDomain.Session, len(models))
	for i, m := range models {
		sess, err := toDomainSession(&m)
		if err != nil {
			return nil, 0, err
		}
		sessions[i] = sess
	}
	return sessions, total, nil
}
