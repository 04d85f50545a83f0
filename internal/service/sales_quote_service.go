package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultCurrency      = "USD"
	defaultQuoteValidity = 30 * 24 * time.Hour
)

// SalesQuoteService handles admin quotes on RFQs and the customer's response
type SalesQuoteService struct {
	db            *gorm.DB
	quoteRepo     *repository.SalesQuoteRepository
	rfqRepo       *repository.RfqRepository
	orderRepo     *repository.SalesOrderRepository
	userRepo      *repository.UserRepository
	numbering     *NumberingService
	uploader      *Uploader
	notifications *NotificationService
	email         *EmailService
	logger        *zap.Logger
	now           func() time.Time
}

// NewSalesQuoteService creates a new SalesQuoteService
func NewSalesQuoteService(
	db *gorm.DB,
	quoteRepo *repository.SalesQuoteRepository,
	rfqRepo *repository.RfqRepository,
	orderRepo *repository.SalesOrderRepository,
	userRepo *repository.UserRepository,
	numbering *NumberingService,
	uploader *Uploader,
	notifications *NotificationService,
	email *EmailService,
	logger *zap.Logger,
) *SalesQuoteService {
	return &SalesQuoteService{
		db:            db,
		quoteRepo:     quoteRepo,
		rfqRepo:       rfqRepo,
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		numbering:     numbering,
		uploader:      uploader,
		notifications: notifications,
		email:         email,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return defaultCurrency
	}
	return c
}

// AdminCreate issues a quote for an RFQ and marks the RFQ quoted. An RFQ
// the customer already answered must be reopened through its status first.
func (s *SalesQuoteService) AdminCreate(ctx context.Context, rfqID uuid.UUID, req *domain.CreateSalesQuoteRequest) (*domain.SalesQuoteDTO, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}

	validUntil := s.now().Add(defaultQuoteValidity)
	if req.ValidUntil != nil {
		validUntil = req.ValidUntil.UTC()
	}

	quote := &domain.SalesQuote{
		RfqID:                 rfqID,
		Amount:                decimal.NewFromFloat(req.Amount).Round(2),
		Currency:              normalizeCurrency(req.Currency),
		ValidUntil:            validUntil,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		Notes:                 req.Notes,
		Status:                domain.QuoteStatusPending,
	}

	var rfq *domain.RFQ
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rfqs := repository.NewRfqRepository(tx)

		var err error
		rfq, err = rfqs.GetByID(ctx, rfqID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRfqNotFound
			}
			return err
		}
		if !rfq.Status.OpenForQuotes() {
			return ErrRfqClosed
		}

		number, err := s.numbering.WithTx(tx).NextSalesQuoteNumber(ctx)
		if err != nil {
			return err
		}
		quote.QuoteNumber = number

		if err := repository.NewSalesQuoteRepository(tx).Create(ctx, quote); err != nil {
			return fmt.Errorf("failed to create quote: %w", err)
		}
		return rfqs.UpdateStatus(ctx, rfqID, domain.RfqStatusQuoted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales quote created",
		zap.String("quoteID", quote.ID.String()),
		zap.String("number", quote.QuoteNumber),
		zap.String("rfqID", rfqID.String()))

	if rfq.User != nil {
		s.notifications.Notify(ctx, rfq.UserID, domain.NotificationQuoteReady,
			"Your quote is ready",
			fmt.Sprintf("Quote %s for %s is ready for review", quote.QuoteNumber, rfq.ProjectName),
			map[string]interface{}{"quoteId": quote.ID.String(), "rfqId": rfq.ID.String()})
		s.email.SendQuoteReady(ctx, rfq.User, quote, rfq)
	}

	quote.Rfq = rfq
	dto := mapper.ToSalesQuoteDTO(quote)
	return &dto, nil
}

// UploadQuoteFile attaches the quote document. Admin only.
func (s *SalesQuoteService) UploadQuoteFile(ctx context.Context, id uuid.UUID, up *Upload) (*domain.SalesQuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	stored, err := s.uploader.Store(ctx, "quotes", up)
	if err != nil {
		return nil, err
	}
	if err := s.quoteRepo.SetQuoteFile(ctx, id, stored.Path, stored.FileName); err != nil {
		s.uploader.Remove(ctx, stored.Path)
		return nil, fmt.Errorf("failed to save quote file: %w", err)
	}
	s.uploader.Remove(ctx, quote.QuoteFilePath)

	quote.QuoteFilePath = stored.Path
	quote.QuoteFileName = stored.FileName
	dto := mapper.ToSalesQuoteDTO(quote)
	return &dto, nil
}

// List returns the quotes on the caller company's RFQs
func (s *SalesQuoteService) List(ctx context.Context) ([]domain.SalesQuoteDTO, error) {
	quotes, err := s.quoteRepo.ListScoped(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return mapper.ToSalesQuoteDTOs(quotes), nil
}

func (s *SalesQuoteService) getScoped(ctx context.Context, id uuid.UUID) (*domain.SalesQuote, error) {
	quote, err := s.quoteRepo.GetScoped(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return quote, nil
}

// Get returns a quote on one of the caller company's RFQs
func (s *SalesQuoteService) Get(ctx context.Context, id uuid.UUID) (*domain.SalesQuoteDTO, error) {
	quote, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToSalesQuoteDTO(quote)
	return &dto, nil
}

// Respond accepts or declines a pending quote. The quote and its RFQ take
// the same status in one transaction.
func (s *SalesQuoteService) Respond(ctx context.Context, id uuid.UUID, action string) (*domain.SalesQuoteDTO, error) {
	var quoteStatus domain.QuoteStatus
	var rfqStatus domain.RfqStatus
	switch action {
	case "accept":
		quoteStatus, rfqStatus = domain.QuoteStatusAccepted, domain.RfqStatusAccepted
	case "decline":
		quoteStatus, rfqStatus = domain.QuoteStatusDeclined, domain.RfqStatusDeclined
	default:
		return nil, fmt.Errorf("%w: action must be accept or decline", ErrInvalidInput)
	}

	quote, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}

	respondedAt := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quotes := repository.NewSalesQuoteRepository(tx)
		current, err := quotes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != domain.QuoteStatusPending {
			return ErrQuoteNotPending
		}
		rfqs := repository.NewRfqRepository(tx)
		rfq, err := rfqs.GetByID(ctx, quote.RfqID)
		if err != nil {
			return err
		}
		if !rfq.Status.OpenForQuotes() {
			return ErrRfqClosed
		}
		if err := quotes.UpdateStatus(ctx, id, quoteStatus, respondedAt); err != nil {
			return fmt.Errorf("failed to update quote: %w", err)
		}
		if err := rfqs.UpdateStatus(ctx, quote.RfqID, rfqStatus); err != nil {
			return fmt.Errorf("failed to update RFQ: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	quote.Status = quoteStatus
	quote.RespondedAt = &respondedAt
	if quote.Rfq != nil {
		quote.Rfq.Status = rfqStatus
	}

	s.logger.Info("sales quote answered",
		zap.String("quoteID", id.String()),
		zap.String("status", string(quoteStatus)))

	s.notifyResponse(ctx, quote)

	dto := mapper.ToSalesQuoteDTO(quote)
	return &dto, nil
}

func (s *SalesQuoteService) notifyResponse(ctx context.Context, quote *domain.SalesQuote) {
	if quote.Rfq == nil {
		return
	}
	customer := quote.Rfq.User
	if customer == nil {
		loaded, err := s.userRepo.GetByID(ctx, quote.Rfq.UserID)
		if err != nil {
			s.logger.Warn("failed to load customer for quote response", zap.Error(err))
			return
		}
		customer = loaded
	}

	s.notifications.NotifyAdmins(ctx, domain.NotificationQuoteResponse,
		fmt.Sprintf("Quote %s %s", quote.QuoteNumber, quote.Status),
		fmt.Sprintf("%s %s quote %s for %s", customer.Name, quote.Status, quote.QuoteNumber, quote.Rfq.ProjectName),
		map[string]interface{}{"quoteId": quote.ID.String(), "rfqId": quote.RfqID.String()})

	admins, err := s.userRepo.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		s.logger.Warn("failed to load admins for quote response email", zap.Error(err))
		return
	}
	s.email.SendQuoteResponse(ctx, admins, customer, quote, quote.Rfq)
}

// UploadPurchaseOrder stores the customer's PO for an accepted quote. An
// order waiting for the PO moves to pending.
func (s *SalesQuoteService) UploadPurchaseOrder(ctx context.Context, id uuid.UUID, poNumber string, up *Upload) (*domain.SalesQuoteDTO, error) {
	quote, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.QuoteStatusAccepted {
		return nil, ErrQuoteNotAccepted
	}

	stored, err := s.uploader.Store(ctx, "purchase-orders", up)
	if err != nil {
		return nil, err
	}
	poNumber = strings.TrimSpace(poNumber)
	if err := s.quoteRepo.SetPurchaseOrder(ctx, id, stored.Path, stored.FileName, poNumber); err != nil {
		s.uploader.Remove(ctx, stored.Path)
		return nil, fmt.Errorf("failed to save purchase order: %w", err)
	}
	s.uploader.Remove(ctx, quote.PurchaseOrderPath)

	advanced, err := s.orderRepo.AdvanceWaitingForPO(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to advance order: %w", err)
	}

	s.logger.Info("customer purchase order uploaded",
		zap.String("quoteID", id.String()),
		zap.Int64("ordersAdvanced", advanced))

	s.notifications.NotifyAdmins(ctx, domain.NotificationQuoteResponse,
		"Purchase order received",
		fmt.Sprintf("A purchase order was uploaded for quote %s", quote.QuoteNumber),
		map[string]interface{}{"quoteId": quote.ID.String()})

	quote.PurchaseOrderPath = stored.Path
	quote.PurchaseOrderFileName = stored.FileName
	quote.CustomerPONumber = poNumber
	dto := mapper.ToSalesQuoteDTO(quote)
	return &dto, nil
}

// DownloadQuoteFile opens the quote document for the RFQ owner or an admin
func (s *SalesQuoteService) DownloadQuoteFile(ctx context.Context, id uuid.UUID) (*Download, error) {
	quote, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.uploader.Open(ctx, quote.QuoteFilePath, quote.QuoteFileName, "")
}

// DownloadPurchaseOrder opens the customer's PO for the RFQ owner or an admin
func (s *SalesQuoteService) DownloadPurchaseOrder(ctx context.Context, id uuid.UUID) (*Download, error) {
	quote, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.uploader.Open(ctx, quote.PurchaseOrderPath, quote.PurchaseOrderFileName, "")
}

// callerIsAdmin reports whether the context carries an admin
func callerIsAdmin(ctx context.Context) bool {
	userCtx, ok := auth.FromContext(ctx)
	return ok && userCtx.IsAdmin()
}
