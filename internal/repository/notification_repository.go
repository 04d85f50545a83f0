package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
)

// NotificationRepository stores in-app notifications. Every read and write
// after Create is restricted to the recipient.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) recipient(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", userID)
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListByUser returns the newest notifications first. limit <= 0 means no limit.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	query := r.recipient(ctx, userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var notifications []domain.Notification
	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.recipient(ctx, userID).Where("is_read = ?", false).Count(&count).Error
	return count, err
}

func markRead(query *gorm.DB) *gorm.DB {
	return query.Updates(map[string]interface{}{
		"is_read": true,
		"read_at": time.Now().UTC(),
	})
}

// MarkAsRead returns the number of rows touched, 0 when the notification
// does not exist or belongs to someone else
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result := markRead(r.recipient(ctx, userID).Where("id = ?", id))
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return markRead(r.recipient(ctx, userID).Where("is_read = ?", false)).Error
}

// Delete returns the number of rows removed
func (r *NotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Notification{})
	return result.RowsAffected, result.Error
}
