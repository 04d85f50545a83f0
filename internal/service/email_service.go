package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mailer"
	"go.uber.org/zap"
)

// ErrEmailUnavailable is returned when no mailer is configured
var ErrEmailUnavailable = errors.New("email delivery is not configured")

const emailDateLayout = "2006-01-02"

// EmailService renders and sends the portal's transactional emails.
// Apart from account codes every send is best-effort: failures are logged
// and never returned.
type EmailService struct {
	mailer   mailer.Mailer
	renderer *mailer.Renderer
	baseURL  string
	authCfg  *config.AuthConfig
	logger   *zap.Logger
}

// NewEmailService creates a new EmailService. m may be nil, in which case
// code emails fail with ErrEmailUnavailable and the rest are skipped.
func NewEmailService(m mailer.Mailer, renderer *mailer.Renderer, cfg *config.Config, logger *zap.Logger) *EmailService {
	return &EmailService{
		mailer:   m,
		renderer: renderer,
		baseURL:  strings.TrimRight(cfg.App.ClientBaseURL, "/"),
		authCfg:  &cfg.Auth,
		logger:   logger,
	}
}

func (s *EmailService) link(path string) string {
	return s.baseURL + path
}

func (s *EmailService) send(ctx context.Context, template, to, toName string, data map[string]interface{}) error {
	if s.mailer == nil {
		return ErrEmailUnavailable
	}
	email, err := s.renderer.Render(template, data)
	if err != nil {
		return err
	}
	email.To = to
	email.ToName = toName
	if err := s.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	return nil
}

func (s *EmailService) sendBestEffort(ctx context.Context, template, to, toName string, data map[string]interface{}) {
	if err := s.send(ctx, template, to, toName, data); err != nil {
		s.logger.Warn("email not sent",
			zap.String("template", template),
			zap.String("to", to),
			zap.Error(err))
	}
}

// SendVerificationCode emails a signup verification code
func (s *EmailService) SendVerificationCode(ctx context.Context, to, name, code string) error {
	return s.send(ctx, mailer.TemplateVerificationCode, to, name, map[string]interface{}{
		"name":    name,
		"code":    code,
		"minutes": int(s.authCfg.VerificationCodeTTL().Minutes()),
	})
}

// SendPasswordReset emails a password reset code
func (s *EmailService) SendPasswordReset(ctx context.Context, to, name, code string) error {
	return s.send(ctx, mailer.TemplatePasswordReset, to, name, map[string]interface{}{
		"name":    name,
		"code":    code,
		"minutes": int(s.authCfg.ResetCodeTTL().Minutes()),
	})
}

// SendWelcome emails an admin-created account its temporary password
func (s *EmailService) SendWelcome(ctx context.Context, user *domain.User, temporaryPassword string) {
	s.sendBestEffort(ctx, mailer.TemplateWelcome, user.Email, user.Name, map[string]interface{}{
		"name":     user.Name,
		"email":    user.Email,
		"role":     string(user.Role),
		"password": temporaryPassword,
		"link":     s.link("/login"),
	})
}

// SendRfqSubmitted tells admins about a new RFQ
func (s *EmailService) SendRfqSubmitted(ctx context.Context, admins []domain.User, rfq *domain.RFQ, customer *domain.User) {
	for _, admin := range admins {
		s.sendBestEffort(ctx, mailer.TemplateRfqSubmitted, admin.Email, admin.Name, map[string]interface{}{
			"customer": customer.Name,
			"project":  rfq.ProjectName,
			"quantity": rfq.Quantity,
			"material": rfq.Material,
			"link":     s.link("/admin/rfqs/" + rfq.ID.String()),
		})
	}
}

// SendQuoteReady tells the customer a quote was issued
func (s *EmailService) SendQuoteReady(ctx context.Context, customer *domain.User, quote *domain.SalesQuote, rfq *domain.RFQ) {
	s.sendBestEffort(ctx, mailer.TemplateQuoteReady, customer.Email, customer.Name, map[string]interface{}{
		"name":        customer.Name,
		"number":      quote.QuoteNumber,
		"project":     rfq.ProjectName,
		"amount":      quote.Amount.StringFixed(2),
		"currency":    quote.Currency,
		"valid_until": quote.ValidUntil.Format(emailDateLayout),
		"link":        s.link("/quotes/" + quote.ID.String()),
	})
}

// SendQuoteResponse tells admins how the customer answered a quote
func (s *EmailService) SendQuoteResponse(ctx context.Context, admins []domain.User, customer *domain.User, quote *domain.SalesQuote, rfq *domain.RFQ) {
	for _, admin := range admins {
		s.sendBestEffort(ctx, mailer.TemplateQuoteResponse, admin.Email, admin.Name, map[string]interface{}{
			"customer": customer.Name,
			"action":   string(quote.Status),
			"number":   quote.QuoteNumber,
			"project":  rfq.ProjectName,
			"link":     s.link("/admin/rfqs/" + rfq.ID.String()),
		})
	}
}

// SendOrderCreated tells the customer an order was opened
func (s *EmailService) SendOrderCreated(ctx context.Context, customer *domain.User, order *domain.SalesOrder) {
	s.sendBestEffort(ctx, mailer.TemplateOrderCreated, customer.Email, customer.Name, map[string]interface{}{
		"name":           customer.Name,
		"number":         order.OrderNumber,
		"project":        order.ProjectName,
		"waiting_for_po": order.OrderStatus == domain.OrderStatusWaitingForPO,
		"link":           s.link("/orders/" + order.ID.String()),
	})
}

// SendOrderStatus tells the customer an order moved in the pipeline
func (s *EmailService) SendOrderStatus(ctx context.Context, customer *domain.User, order *domain.SalesOrder) {
	s.sendBestEffort(ctx, mailer.TemplateOrderStatus, customer.Email, customer.Name, map[string]interface{}{
		"name":   customer.Name,
		"number": order.OrderNumber,
		"status": strings.ReplaceAll(string(order.OrderStatus), "_", " "),
		"link":   s.link("/orders/" + order.ID.String()),
	})
}

// SendSupplierAssignment invites a supplier to quote an RFQ
func (s *EmailService) SendSupplierAssignment(ctx context.Context, supplier *domain.User, rfq *domain.RFQ, dueDate *time.Time) {
	reference := rfq.ProjectName
	if rfq.ReferenceNumber != nil {
		reference = *rfq.ReferenceNumber
	}
	// Liquid treats any string as truthy, so a missing date must be nil
	var due interface{}
	if dueDate != nil {
		due = dueDate.Format(emailDateLayout)
	}
	s.sendBestEffort(ctx, mailer.TemplateSupplierAssignment, supplier.Email, supplier.Name, map[string]interface{}{
		"name":      supplier.Name,
		"reference": reference,
		"quantity":  rfq.Quantity,
		"material":  rfq.Material,
		"due_date":  due,
		"link":      s.link("/supplier/rfqs/" + rfq.ID.String()),
	})
}

// SendPurchaseOrder tells a supplier a purchase order awaits a response
func (s *EmailService) SendPurchaseOrder(ctx context.Context, supplier *domain.User, po *domain.PurchaseOrder) {
	s.sendBestEffort(ctx, mailer.TemplatePurchaseOrder, supplier.Email, supplier.Name, map[string]interface{}{
		"name":     supplier.Name,
		"number":   po.PONumber,
		"amount":   po.Amount.StringFixed(2),
		"currency": po.Currency,
		"link":     s.link("/supplier/purchase-orders"),
	})
}

// SendMessageReminder sends one digest for a receiver's unread messages
func (s *EmailService) SendMessageReminder(ctx context.Context, receiver *domain.User, count int, senders []string) error {
	return s.send(ctx, mailer.TemplateMessageReminder, receiver.Email, receiver.Name, map[string]interface{}{
		"name":    receiver.Name,
		"count":   count,
		"senders": strings.Join(senders, ", "),
		"link":    s.link("/messages"),
	})
}
