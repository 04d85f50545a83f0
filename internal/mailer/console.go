package mailer

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleMailer logs emails instead of sending them
type ConsoleMailer struct {
	logger *zap.Logger
}

func NewConsoleMailer(logger *zap.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) Send(ctx context.Context, email Email) error {
	m.logger.Info("email (console)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("text", email.Text),
	)
	return nil
}
