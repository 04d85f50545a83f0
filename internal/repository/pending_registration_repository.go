package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PendingRegistrationRepository stores signups awaiting email verification
type PendingRegistrationRepository struct {
	db *gorm.DB
}

func NewPendingRegistrationRepository(db *gorm.DB) *PendingRegistrationRepository {
	return &PendingRegistrationRepository{db: db}
}

// Upsert replaces any pending signup for the same (email, role)
func (r *PendingRegistrationRepository) Upsert(ctx context.Context, pending *domain.PendingRegistration) error {
	if pending.ID == uuid.Nil {
		pending.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}, {Name: "role"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "phone", "company_name", "password_hash", "code", "expires_at", "failed_attempts", "updated_at",
		}),
	}).Create(pending).Error
}

func (r *PendingRegistrationRepository) Get(ctx context.Context, email string, role domain.UserRole) (*domain.PendingRegistration, error) {
	var pending domain.PendingRegistration
	err := r.db.WithContext(ctx).
		Where("email = ? AND role = ?", normalizeEmail(email), role).
		First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

// UpdateCode replaces the verification code and extends the expiry
func (r *PendingRegistrationRepository) UpdateCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.PendingRegistration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"code":            code,
			"expires_at":      expiresAt,
			"failed_attempts": 0,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// RecordFailedAttempt counts a wrong code against the signup
func (r *PendingRegistrationRepository) RecordFailedAttempt(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.PendingRegistration{}).
		Where("id = ?", id).
		UpdateColumn("failed_attempts", gorm.Expr("failed_attempts + 1")).Error
}

func (r *PendingRegistrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.PendingRegistration{}, "id = ?", id).Error
}

// DeleteExpired removes signups whose code expired before now
func (r *PendingRegistrationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.PendingRegistration{})
	return result.RowsAffected, result.Error
}
