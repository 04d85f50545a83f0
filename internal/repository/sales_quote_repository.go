package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
)

// SalesQuoteRepository handles database operations for sales quotes
type SalesQuoteRepository struct {
	db *gorm.DB
}

func NewSalesQuoteRepository(db *gorm.DB) *SalesQuoteRepository {
	return &SalesQuoteRepository{db: db}
}

func (r *SalesQuoteRepository) Create(ctx context.Context, quote *domain.SalesQuote) error {
	return r.db.WithContext(ctx).Omit("Rfq").Create(quote).Error
}

func (r *SalesQuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SalesQuote, error) {
	var quote domain.SalesQuote
	err := r.db.WithContext(ctx).Preload("Rfq").Where("id = ?", id).First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetScoped retrieves a quote only if the RFQ belongs to the caller's company
func (r *SalesQuoteRepository) GetScoped(ctx context.Context, id uuid.UUID) (*domain.SalesQuote, error) {
	var quote domain.SalesQuote
	query := r.db.WithContext(ctx).
		Joins("JOIN rfqs ON rfqs.id = sales_quotes.rfq_id").
		Preload("Rfq").
		Where("sales_quotes.id = ?", id)
	query = ApplyOwnerScope(ctx, query, "rfqs.user_id")
	if err := query.First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

// ListScoped returns the quotes on RFQs of the caller's company
func (r *SalesQuoteRepository) ListScoped(ctx context.Context) ([]domain.SalesQuote, error) {
	var quotes []domain.SalesQuote
	query := r.db.WithContext(ctx).
		Model(&domain.SalesQuote{}).
		Joins("JOIN rfqs ON rfqs.id = sales_quotes.rfq_id")
	query = ApplyOwnerScope(ctx, query, "rfqs.user_id")
	err := query.Preload("Rfq").Order("sales_quotes.created_at DESC").Find(&quotes).Error
	return quotes, err
}

// GetAcceptedByRfq returns the quote the customer accepted for an RFQ
func (r *SalesQuoteRepository) GetAcceptedByRfq(ctx context.Context, rfqID uuid.UUID) (*domain.SalesQuote, error) {
	var quote domain.SalesQuote
	err := r.db.WithContext(ctx).
		Where("rfq_id = ? AND status = ?", rfqID, domain.QuoteStatusAccepted).
		Order("responded_at DESC").
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// UpdateStatus records the customer's response
func (r *SalesQuoteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus, respondedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.SalesQuote{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
			"updated_at":   time.Now().UTC(),
		}).Error
}

// SetQuoteFile stores the uploaded quote document
func (r *SalesQuoteRepository) SetQuoteFile(ctx context.Context, id uuid.UUID, path, fileName string) error {
	return r.db.WithContext(ctx).
		Model(&domain.SalesQuote{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quote_file_path": path,
			"quote_file_name": fileName,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// SetPurchaseOrder stores the customer's purchase order upload
func (r *SalesQuoteRepository) SetPurchaseOrder(ctx context.Context, id uuid.UUID, path, fileName, poNumber string) error {
	return r.db.WithContext(ctx).
		Model(&domain.SalesQuote{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"purchase_order_path":      path,
			"purchase_order_file_name": fileName,
			"customer_po_number":       poNumber,
			"updated_at":               time.Now().UTC(),
		}).Error
}

// MaxYearlySequence returns the highest sequence among quote numbers of a two digit year
func (r *SalesQuoteRepository) MaxYearlySequence(ctx context.Context, yy int) (int, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&domain.SalesQuote{}).Pluck("quote_number", &numbers).Error; err != nil {
		return 0, err
	}
	return maxYearly(numbers, yy), nil
}

func maxYearly(numbers []string, yy int) int {
	max := 0
	for _, n := range numbers {
		if y, seq, ok := domain.ParseYearlySequence(n); ok && y == yy && seq > max {
			max = seq
		}
	}
	return max
}
