package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/realtime"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ErrNotificationNotFound is returned when a notification is not found or
// belongs to another user
var ErrNotificationNotFound = errors.New("notification not found")

// ErrUserContextRequired is returned when user context is not available
var ErrUserContextRequired = errors.New("user context required")

const defaultNotificationLimit = 50

// EventPusher delivers realtime events to a user's open connections
type EventPusher interface {
	SendToUser(userID uuid.UUID, evt realtime.Event)
}

// NotificationService handles business logic for notifications
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	pusher           EventPusher
	logger           *zap.Logger
}

// NewNotificationService creates a new NotificationService instance.
// pusher may be nil when no realtime hub is running.
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	pusher EventPusher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pusher:           pusher,
		logger:           logger,
	}
}

// CreateForUser persists a notification and pushes it to the user's open
// connections. Push failures are ignored.
func (s *NotificationService) CreateForUser(
	ctx context.Context,
	userID uuid.UUID,
	notificationType domain.NotificationType,
	title string,
	message string,
	data map[string]interface{},
) (*domain.NotificationDTO, error) {
	notification := &domain.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
	}
	if len(data) > 0 {
		notification.Data = datatypes.JSONMap(data)
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Debug("notification created",
		zap.String("notificationID", notification.ID.String()),
		zap.String("userID", userID.String()),
		zap.String("type", string(notificationType)),
	)

	s.Push(userID, realtime.Event{Type: realtime.EventNotificationCreated, ID: notification.ID, Action: "create"})

	dto := mapper.ToNotificationDTO(notification)
	return &dto, nil
}

// Push sends an event to a user when a hub is attached
func (s *NotificationService) Push(userID uuid.UUID, evt realtime.Event) {
	if s.pusher == nil {
		return
	}
	s.pusher.SendToUser(userID, evt)
}

// Notify creates a notification and only logs failures. Used by workflow
// services where the notification is a side effect.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID uuid.UUID,
	notificationType domain.NotificationType,
	title string,
	message string,
	data map[string]interface{},
) {
	if _, err := s.CreateForUser(ctx, userID, notificationType, title, message, data); err != nil {
		s.logger.Warn("failed to create notification for user",
			zap.String("userID", userID.String()),
			zap.String("type", string(notificationType)),
			zap.Error(err),
		)
	}
}

// NotifyAdmins notifies every admin account
func (s *NotificationService) NotifyAdmins(
	ctx context.Context,
	notificationType domain.NotificationType,
	title string,
	message string,
	data map[string]interface{},
) {
	admins, err := s.userRepo.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		s.logger.Warn("failed to load admins for notification", zap.Error(err))
		return
	}
	for _, admin := range admins {
		s.Notify(ctx, admin.ID, notificationType, title, message, data)
	}
}

// ListForCurrentUser returns the caller's notifications, newest first
func (s *NotificationService) ListForCurrentUser(ctx context.Context, unreadOnly bool, limit int) ([]domain.NotificationDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}
	if limit < 1 || limit > repository.MaxPageSize {
		limit = defaultNotificationLimit
	}

	notifications, err := s.notificationRepo.ListByUser(ctx, userCtx.UserID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return mapper.ToNotificationDTOs(notifications), nil
}

// GetUnreadCount returns the number of unread notifications of the caller
func (s *NotificationService) GetUnreadCount(ctx context.Context) (int64, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return 0, ErrUserContextRequired
	}
	count, err := s.notificationRepo.CountUnread(ctx, userCtx.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks one of the caller's notifications as read
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}
	rows, err := s.notificationRepo.MarkAsRead(ctx, id, userCtx.UserID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead marks every notification of the caller as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}
	if err := s.notificationRepo.MarkAllAsRead(ctx, userCtx.UserID); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

// Delete removes one of the caller's notifications
func (s *NotificationService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}
	rows, err := s.notificationRepo.Delete(ctx, id, userCtx.UserID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
