package mailer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/mailer"
	"go.uber.org/zap"
)

func TestRenderer_Render(t *testing.T) {
	r := mailer.NewRenderer()

	t.Run("verification code", func(t *testing.T) {
		email, err := r.Render(mailer.TemplateVerificationCode, map[string]interface{}{
			"name": "Ada", "code": "123456", "minutes": 15,
		})
		require.NoError(t, err)
		assert.Equal(t, "Your S-Hub verification code", email.Subject)
		assert.Contains(t, email.HTML, "123456")
		assert.Contains(t, email.Text, "15 minutes")
	})

	t.Run("plural reminder subject", func(t *testing.T) {
		one, err := r.Render(mailer.TemplateMessageReminder, map[string]interface{}{"name": "A", "count": 1, "senders": "Admin", "link": "x"})
		require.NoError(t, err)
		many, err := r.Render(mailer.TemplateMessageReminder, map[string]interface{}{"name": "A", "count": 3, "senders": "Admin", "link": "x"})
		require.NoError(t, err)
		assert.Equal(t, "You have 1 unread message on S-Hub", one.Subject)
		assert.Equal(t, "You have 3 unread messages on S-Hub", many.Subject)
	})

	t.Run("conditional block", func(t *testing.T) {
		email, err := r.Render(mailer.TemplateOrderCreated, map[string]interface{}{
			"name": "Ada", "number": "SORD-25001", "project": "Bracket", "waiting_for_po": true, "link": "x",
		})
		require.NoError(t, err)
		assert.Contains(t, email.HTML, "upload your purchase order")
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := r.Render("nope", nil)
		assert.Error(t, err)
	})
}

func TestNewMailer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EmailConfig
		wantErr bool
		check   func(t *testing.T, m mailer.Mailer)
	}{
		{
			name: "console by default",
			cfg:  config.EmailConfig{},
			check: func(t *testing.T, m mailer.Mailer) {
				assert.IsType(t, &mailer.ConsoleMailer{}, m)
			},
		},
		{
			name: "sendgrid",
			cfg:  config.EmailConfig{Provider: "sendgrid", SendGridAPIKey: "key"},
			check: func(t *testing.T, m mailer.Mailer) {
				assert.IsType(t, &mailer.SendGridMailer{}, m)
			},
		},
		{
			name:    "sendgrid without key",
			cfg:     config.EmailConfig{Provider: "sendgrid"},
			wantErr: true,
		},
		{
			name: "smtp",
			cfg:  config.EmailConfig{Provider: "smtp", SMTPHost: "localhost"},
			check: func(t *testing.T, m mailer.Mailer) {
				assert.IsType(t, &mailer.SMTPMailer{}, m)
			},
		},
		{
			name:    "unknown provider",
			cfg:     config.EmailConfig{Provider: "pigeon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := mailer.NewMailer(&tt.cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}

func TestConsoleMailer_Send(t *testing.T) {
	m := mailer.NewConsoleMailer(zap.NewNop())
	assert.NoError(t, m.Send(context.Background(), mailer.Email{To: "a@example.com", Subject: "hi"}))
}
