package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
)

// ReminderService emails users about messages they have not read
type ReminderService struct {
	messageRepo *repository.MessageRepository
	email       *EmailService
	logger      *zap.Logger
	now         func() time.Time
}

// NewReminderService creates a new ReminderService
func NewReminderService(messageRepo *repository.MessageRepository, email *EmailService, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		messageRepo: messageRepo,
		email:       email,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type reminderBatch struct {
	receiver *domain.User
	senders  []string
	seen     map[uuid.UUID]bool
	count    int
}

// SendUnreadReminders sends one digest per receiver for unread messages
// older than olderThan that have not been reminded yet. The whole batch is
// marked sent afterwards, including messages whose email failed.
func (s *ReminderService) SendUnreadReminders(ctx context.Context, olderThan time.Duration) (sent int, failed int, err error) {
	messages, err := s.messageRepo.FindUnreadForReminder(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find unread messages: %w", err)
	}
	if len(messages) == 0 {
		return 0, 0, nil
	}

	ids := make([]uuid.UUID, 0, len(messages))
	batches := make(map[uuid.UUID]*reminderBatch)
	order := make([]uuid.UUID, 0)
	for i := range messages {
		m := &messages[i]
		ids = append(ids, m.ID)
		if m.Receiver == nil {
			continue
		}
		b, ok := batches[m.ReceiverID]
		if !ok {
			b = &reminderBatch{receiver: m.Receiver, seen: make(map[uuid.UUID]bool)}
			batches[m.ReceiverID] = b
			order = append(order, m.ReceiverID)
		}
		b.count++
		if m.Sender != nil && !b.seen[m.SenderID] {
			b.seen[m.SenderID] = true
			b.senders = append(b.senders, m.Sender.Name)
		}
	}

	for _, receiverID := range order {
		b := batches[receiverID]
		if err := s.email.SendMessageReminder(ctx, b.receiver, b.count, b.senders); err != nil {
			failed++
			s.logger.Warn("failed to send message reminder",
				zap.String("receiverID", receiverID.String()),
				zap.Int("count", b.count),
				zap.Error(err))
			continue
		}
		sent++
	}

	if _, err := s.messageRepo.MarkReminderSent(ctx, ids); err != nil {
		return sent, failed, fmt.Errorf("failed to mark reminders sent: %w", err)
	}
	return sent, failed, nil
}
