package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/valisyam/shub/internal/config"
	"github.com/wneessen/go-mail"
)

// SMTPMailer sends through an SMTP relay
type SMTPMailer struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPMailer(cfg *config.EmailConfig) *SMTPMailer {
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	return &SMTPMailer{
		host:      cfg.SMTPHost,
		port:      port,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromName:  cfg.FromName,
		fromEmail: cfg.FromAddress,
	}
}

func (m *SMTPMailer) buildMessage(email Email) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())
	if err := msg.FromFormat(m.fromName, m.fromEmail); err != nil {
		return nil, fmt.Errorf("failed to set email from address: %w", err)
	}
	if err := msg.AddToFormat(email.ToName, email.To); err != nil {
		return nil, fmt.Errorf("failed to set email recipient: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	if email.Text != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, email.Text)
	}
	return msg, nil
}

func (m *SMTPMailer) createClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	// Unauthenticated relays are allowed
	if m.username != "" {
		opts = append(opts,
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}
	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	msg, err := m.buildMessage(email)
	if err != nil {
		return err
	}
	client, err := m.createClient()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
