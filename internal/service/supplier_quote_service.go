package service

import (
	"context"
	"errors"
	"fmt"
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

var hundred = decimal.NewFromInt(100)

// QuoteCosts is the cost breakdown a supplier enters
type QuoteCosts struct {
	Quantity              int
	ToolingCost           decimal.Decimal
	MaterialCostPerPiece  decimal.Decimal
	MachiningCostPerPiece decimal.Decimal
	FinishingCostPerPiece decimal.Decimal
	PackagingCostPerPiece decimal.Decimal
	ShippingCost          decimal.Decimal
	TaxPercentage         decimal.Decimal
	DiscountPercentage    decimal.Decimal
}

// QuoteTotals are the derived amounts of a supplier quote, rounded to cents
type QuoteTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// ComputeQuoteTotals prices a supplier quote:
// subtotal = per-piece costs x quantity + tooling + shipping,
// discount = subtotal x discount%, tax = (subtotal - discount) x tax%.
func ComputeQuoteTotals(c QuoteCosts) QuoteTotals {
	perPiece := c.MaterialCostPerPiece.
		Add(c.MachiningCostPerPiece).
		Add(c.FinishingCostPerPiece).
		Add(c.PackagingCostPerPiece)

	subtotal := perPiece.Mul(decimal.NewFromInt(int64(c.Quantity))).
		Add(c.ToolingCost).
		Add(c.ShippingCost).
		Round(2)
	discount := subtotal.Mul(c.DiscountPercentage).Div(hundred).Round(2)
	tax := subtotal.Sub(discount).Mul(c.TaxPercentage).Div(hundred).Round(2)

	return QuoteTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		TotalAmount:    subtotal.Sub(discount).Add(tax).Round(2),
	}
}

// SupplierQuoteService handles supplier assignments and bids
type SupplierQuoteService struct {
	db            *gorm.DB
	quoteRepo     *repository.SupplierQuoteRepository
	assignRepo    *repository.RfqAssignmentRepository
	rfqRepo       *repository.RfqRepository
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

// NewSupplierQuoteService creates a new SupplierQuoteService
func NewSupplierQuoteService(
	db *gorm.DB,
	quoteRepo *repository.SupplierQuoteRepository,
	assignRepo *repository.RfqAssignmentRepository,
	rfqRepo *repository.RfqRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *SupplierQuoteService {
	return &SupplierQuoteService{
		db:            db,
		quoteRepo:     quoteRepo,
		assignRepo:    assignRepo,
		rfqRepo:       rfqRepo,
		notifications: notifications,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ListMyAssignments returns the assignments of the caller's company
func (s *SupplierQuoteService) ListMyAssignments(ctx context.Context) ([]domain.RfqAssignmentDTO, error) {
	assignments, err := s.assignRepo.ListScoped(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return mapper.ToRfqAssignmentDTOs(assignments), nil
}

func (s *SupplierQuoteService) findAssignment(ctx context.Context, rfqID uuid.UUID) (*domain.RfqAssignment, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	assignment, err := s.assignRepo.FindScopedForRfq(ctx, rfqID, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAssigned
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return assignment, nil
}

// GetAssignedRfq returns an RFQ the caller's company was invited to quote.
// Customer identity is withheld.
func (s *SupplierQuoteService) GetAssignedRfq(ctx context.Context, rfqID uuid.UUID) (*domain.RfqDTO, error) {
	if _, err := s.findAssignment(ctx, rfqID); err != nil {
		return nil, err
	}
	rfq, err := s.rfqRepo.GetByID(ctx, rfqID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRfqNotFound
		}
		return nil, fmt.Errorf("failed to get RFQ: %w", err)
	}
	dto := mapper.ToSupplierRfqDTO(rfq)
	return &dto, nil
}

func (s *SupplierQuoteService) isExpired(a *domain.RfqAssignment) bool {
	if a.Status == domain.AssignmentStatusExpired {
		return true
	}
	return a.DueDate != nil && a.DueDate.Before(s.now())
}

// SubmitQuote records a bid on an assigned RFQ
func (s *SupplierQuoteService) SubmitQuote(ctx context.Context, rfqID uuid.UUID, req *domain.SubmitSupplierQuoteRequest) (*domain.SupplierQuoteDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	assignment, err := s.findAssignment(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if s.isExpired(assignment) {
		return nil, ErrAssignmentExpired
	}

	rfq, err := s.rfqRepo.GetByID(ctx, rfqID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRfqNotFound
		}
		return nil, fmt.Errorf("failed to get RFQ: %w", err)
	}

	costs := QuoteCosts{
		Quantity:              req.Quantity,
		ToolingCost:           decimal.NewFromFloat(req.ToolingCost),
		MaterialCostPerPiece:  decimal.NewFromFloat(req.MaterialCostPerPiece),
		MachiningCostPerPiece: decimal.NewFromFloat(req.MachiningCostPerPiece),
		FinishingCostPerPiece: decimal.NewFromFloat(req.FinishingCostPerPiece),
		PackagingCostPerPiece: decimal.NewFromFloat(req.PackagingCostPerPiece),
		ShippingCost:          decimal.NewFromFloat(req.ShippingCost),
		TaxPercentage:         decimal.NewFromFloat(req.TaxPercentage),
		DiscountPercentage:    decimal.NewFromFloat(req.DiscountPercentage),
	}
	if costs.Quantity <= 0 {
		costs.Quantity = rfq.Quantity
	}
	totals := ComputeQuoteTotals(costs)

	quote := &domain.SupplierQuote{
		RfqID:                 rfqID,
		SupplierID:            userCtx.UserID,
		AssignmentID:          assignment.ID,
		Quantity:              costs.Quantity,
		ToolingCost:           costs.ToolingCost,
		MaterialCostPerPiece:  costs.MaterialCostPerPiece,
		MachiningCostPerPiece: costs.MachiningCostPerPiece,
		FinishingCostPerPiece: costs.FinishingCostPerPiece,
		PackagingCostPerPiece: costs.PackagingCostPerPiece,
		ShippingCost:          costs.ShippingCost,
		TaxPercentage:         costs.TaxPercentage,
		DiscountPercentage:    costs.DiscountPercentage,
		Subtotal:              totals.Subtotal,
		DiscountAmount:        totals.DiscountAmount,
		TaxAmount:             totals.TaxAmount,
		TotalAmount:           totals.TotalAmount,
		Currency:              normalizeCurrency(req.Currency),
		LeadTimeDays:          req.LeadTimeDays,
		ValidUntil:            req.ValidUntil,
		Notes:                 req.Notes,
		Status:                domain.SupplierQuoteStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewSupplierQuoteRepository(tx).Create(ctx, quote); err != nil {
			return fmt.Errorf("failed to create supplier quote: %w", err)
		}
		return repository.NewRfqAssignmentRepository(tx).UpdateStatus(ctx, assignment.ID, domain.AssignmentStatusQuoted)
	})
	if err != nil {
		return nil, err
	}

	ref := rfq.ProjectName
	if rfq.ReferenceNumber != nil {
		ref = *rfq.ReferenceNumber
	}
	s.logger.Info("supplier quote submitted",
		zap.String("supplierQuoteID", quote.ID.String()),
		zap.String("rfqID", rfqID.String()),
		zap.String("total", totals.TotalAmount.StringFixed(2)))

	s.notifications.NotifyAdmins(ctx, domain.NotificationSupplierQuote,
		"Supplier quote received",
		fmt.Sprintf("%s quoted %s %s for %s", userCtx.Name, totals.TotalAmount.StringFixed(2), quote.Currency, ref),
		map[string]interface{}{"supplierQuoteId": quote.ID.String(), "rfqId": rfqID.String()})

	quote.Rfq = rfq
	dto := mapper.ToSupplierQuoteDTO(quote)
	return &dto, nil
}

// ListMyQuotes returns the bids of the caller's company
func (s *SupplierQuoteService) ListMyQuotes(ctx context.Context) ([]domain.SupplierQuoteDTO, error) {
	quotes, err := s.quoteRepo.ListScoped(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier quotes: %w", err)
	}
	return mapper.ToSupplierQuoteDTOs(quotes), nil
}

// ListByRfq returns every bid on an RFQ, cheapest first. Admin only.
func (s *SupplierQuoteService) ListByRfq(ctx context.Context, rfqID uuid.UUID) ([]domain.SupplierQuoteDTO, error) {
	quotes, err := s.quoteRepo.ListByRfq(ctx, rfqID)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier quotes: %w", err)
	}
	return mapper.ToSupplierQuoteDTOs(quotes), nil
}

// Accept awards an RFQ to one bid. Every other bid on the RFQ becomes
// not_selected in the same transaction.
func (s *SupplierQuoteService) Accept(ctx context.Context, id uuid.UUID) (*domain.SupplierQuoteDTO, error) {
	var quote *domain.SupplierQuote
	var others int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quotes := repository.NewSupplierQuoteRepository(tx)

		var err error
		quote, err = quotes.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSupplierQuoteNotFound
			}
			return err
		}
		if err := quotes.UpdateStatus(ctx, id, domain.SupplierQuoteStatusAccepted); err != nil {
			return fmt.Errorf("failed to accept supplier quote: %w", err)
		}
		others, err = quotes.MarkOthersNotSelected(ctx, quote.RfqID, id)
		if err != nil {
			return fmt.Errorf("failed to update other supplier quotes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	quote.Status = domain.SupplierQuoteStatusAccepted

	s.logger.Info("supplier quote accepted",
		zap.String("supplierQuoteID", id.String()),
		zap.String("rfqID", quote.RfqID.String()),
		zap.Int64("notSelected", others))

	s.notifications.Notify(ctx, quote.SupplierID, domain.NotificationSupplierQuote,
		"Your quote was selected",
		"Your quote has been accepted. A purchase order will follow.",
		map[string]interface{}{"supplierQuoteId": quote.ID.String()})

	dto := mapper.ToSupplierQuoteDTO(quote)
	return &dto, nil
}

// ExpireAssignments moves open assignments past their due date to expired
func (s *SupplierQuoteService) ExpireAssignments(ctx context.Context) (int64, error) {
	n, err := s.assignRepo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire assignments: %w", err)
	}
	return n, nil
}
