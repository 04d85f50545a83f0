package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository handles database operations for messages and attachments
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(message).Error
}

func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var message domain.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// FindThreadID returns the thread shared by two users in a category, or ""
func (r *MessageRepository) FindThreadID(ctx context.Context, a, b uuid.UUID, category domain.MessageCategory) (string, error) {
	var message domain.Message
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC").
		First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return message.ThreadID, nil
}

// FirstInThread returns the opening message of a thread
func (r *MessageRepository) FirstInThread(ctx context.Context, threadID string) (*domain.Message, error) {
	var message domain.Message
	err := r.db.WithContext(ctx).Where("thread_id = ?", threadID).Order("created_at ASC").First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListThread returns every message of a thread, oldest first
func (r *MessageRepository) ListThread(ctx context.Context, threadID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Preload("Attachments").
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// ListForUser returns every message the user sent or received, newest first
func (r *MessageRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&messages).Error
	return messages, err
}

// MarkThreadRead marks the messages the user received in a thread as read
func (r *MessageRepository) MarkThreadRead(ctx context.Context, threadID string, receiverID uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("thread_id = ? AND receiver_id = ? AND is_read = ?", threadID, receiverID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
}

func (r *MessageRepository) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

// FindUnreadForReminder returns unread messages created before cutoff that
// have not triggered a reminder email yet
func (r *MessageRepository) FindUnreadForReminder(ctx context.Context, cutoff time.Time) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("is_read = ? AND email_notification_sent = ? AND created_at < ?", false, false, cutoff).
		Order("receiver_id ASC, created_at ASC").
		Find(&messages).Error
	return messages, err
}

// MarkReminderSent flags a batch of messages in one statement
func (r *MessageRepository) MarkReminderSent(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"email_notification_sent": true, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

func (r *MessageRepository) CreateAttachment(ctx context.Context, attachment *domain.MessageAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *MessageRepository) GetAttachment(ctx context.Context, id uuid.UUID) (*domain.MessageAttachment, error) {
	var attachment domain.MessageAttachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}
