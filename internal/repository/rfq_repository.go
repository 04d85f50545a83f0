package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
)

// RfqFilters narrows admin RFQ listings
type RfqFilters struct {
	Status domain.RfqStatus
	Sort   SortConfig
}

var rfqSortFields = map[string]string{
	"createdAt":   "rfqs.created_at",
	"updatedAt":   "rfqs.updated_at",
	"projectName": "rfqs.project_name",
	"status":      "rfqs.status",
	"quantity":    "rfqs.quantity",
}

// RfqRepository handles database operations for RFQs
type RfqRepository struct {
	db *gorm.DB
}

func NewRfqRepository(db *gorm.DB) *RfqRepository {
	return &RfqRepository{db: db}
}

func (r *RfqRepository) Create(ctx context.Context, rfq *domain.RFQ) error {
	return r.db.WithContext(ctx).Omit("User").Create(rfq).Error
}

// GetByID retrieves an RFQ without owner scoping
func (r *RfqRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RFQ, error) {
	var rfq domain.RFQ
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&rfq).Error
	if err != nil {
		return nil, err
	}
	return &rfq, nil
}

// GetScoped retrieves an RFQ only if the caller's company owns it
func (r *RfqRepository) GetScoped(ctx context.Context, id uuid.UUID) (*domain.RFQ, error) {
	var rfq domain.RFQ
	query := r.db.WithContext(ctx).Preload("User").Where("rfqs.id = ?", id)
	query = ApplyOwnerScope(ctx, query, "rfqs.user_id")
	if err := query.First(&rfq).Error; err != nil {
		return nil, err
	}
	return &rfq, nil
}

// ListScoped returns the RFQs of the caller's company
func (r *RfqRepository) ListScoped(ctx context.Context) ([]domain.RFQ, error) {
	var rfqs []domain.RFQ
	query := ApplyOwnerScope(ctx, r.db.WithContext(ctx).Model(&domain.RFQ{}), "rfqs.user_id")
	err := query.Preload("User").Order("rfqs.created_at DESC").Find(&rfqs).Error
	return rfqs, err
}

// List returns RFQs for admins
func (r *RfqRepository) List(ctx context.Context, filters RfqFilters, page, pageSize int) ([]domain.RFQ, int64, error) {
	var rfqs []domain.RFQ
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.RFQ{})
	if filters.Status != "" {
		query = query.Where("rfqs.status = ?", filters.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := BuildOrderClause(filters.Sort, rfqSortFields, "rfqs.created_at")
	err := Paginate(query.Preload("User"), page, pageSize).Order(order).Find(&rfqs).Error
	return rfqs, total, err
}

// ListAll returns every RFQ for exports
func (r *RfqRepository) ListAll(ctx context.Context) ([]domain.RFQ, error) {
	var rfqs []domain.RFQ
	err := r.db.WithContext(ctx).Preload("User").Order("created_at ASC").Find(&rfqs).Error
	return rfqs, err
}

func (r *RfqRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RfqStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.RFQ{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}).Error
}

// SetReferenceNumber stores the supplier reference number if none is set yet
func (r *RfqRepository) SetReferenceNumber(ctx context.Context, id uuid.UUID, number string) error {
	return r.db.WithContext(ctx).
		Model(&domain.RFQ{}).
		Where("id = ? AND reference_number IS NULL", id).
		Updates(map[string]interface{}{"reference_number": number, "updated_at": time.Now().UTC()}).Error
}

// MaxReferenceSequence returns the highest SQTE-NNN sequence in use
func (r *RfqRepository) MaxReferenceSequence(ctx context.Context) (int, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).
		Model(&domain.RFQ{}).
		Where("reference_number IS NOT NULL").
		Pluck("reference_number", &numbers).Error; err != nil {
		return 0, err
	}
	max := 0
	for _, n := range numbers {
		if v, ok := domain.ParsePlainSequence(n); ok && v > max {
			max = v
		}
	}
	return max, nil
}
