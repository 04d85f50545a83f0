package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/valisyam/shub/internal/config"
)

// SendGridMailer sends through the SendGrid v3 API
type SendGridMailer struct {
	apiKey    string
	fromName  string
	fromEmail string
}

func NewSendGridMailer(cfg *config.EmailConfig) *SendGridMailer {
	return &SendGridMailer{
		apiKey:    cfg.SendGridAPIKey,
		fromName:  cfg.FromName,
		fromEmail: cfg.FromAddress,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, email Email) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(email.ToName, email.To)
	message := mail.NewSingleEmail(from, email.Subject, to, email.Text, email.HTML)

	client := sendgrid.NewSendClient(m.apiKey)
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed with status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
