package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MessageReminderJobName is the name of the unread message reminder job
const MessageReminderJobName = "message_reminder"

// DefaultReminderAge is how long a message stays unread before a reminder goes out
const DefaultReminderAge = 30 * time.Minute

// ReminderSender sends reminder emails for unread messages.
// This interface allows the job to call the service without importing the service package directly.
type ReminderSender interface {
	SendUnreadReminders(ctx context.Context, olderThan time.Duration) (sent int, failed int, err error)
}

// MessageReminderJob emails users about messages left unread
type MessageReminderJob struct {
	reminders ReminderSender
	olderThan time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// NewMessageReminderJob creates the reminder job. olderThan <= 0 uses DefaultReminderAge.
func NewMessageReminderJob(reminders ReminderSender, olderThan, timeout time.Duration, logger *zap.Logger) *MessageReminderJob {
	if olderThan <= 0 {
		olderThan = DefaultReminderAge
	}
	return &MessageReminderJob{
		reminders: reminders,
		olderThan: olderThan,
		timeout:   timeout,
		logger:    logger,
	}
}

func (j *MessageReminderJob) Name() string { return MessageReminderJobName }

// Run executes one reminder pass
func (j *MessageReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	sent, failed, err := j.reminders.SendUnreadReminders(ctx, j.olderThan)
	if err != nil {
		j.logger.Error("message reminder job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}
	if sent == 0 && failed == 0 {
		return
	}

	j.logger.Info("message reminder job completed",
		zap.Int("sent", sent),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}
