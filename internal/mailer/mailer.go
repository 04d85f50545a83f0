package mailer

import (
	"context"
	"fmt"

	"github.com/valisyam/shub/internal/config"
	"go.uber.org/zap"
)

// Email is one outbound message
type Email struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers outbound email
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// NewMailer selects the implementation configured by Email.Provider
func NewMailer(cfg *config.EmailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid api key is required for the sendgrid provider")
		}
		return NewSendGridMailer(cfg), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp host is required for the smtp provider")
		}
		return NewSMTPMailer(cfg), nil
	case "console", "":
		return NewConsoleMailer(logger), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}
