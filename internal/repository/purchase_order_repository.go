package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseOrderRepository handles database operations for supplier purchase orders
type PurchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

func (r *PurchaseOrderRepository) Create(ctx context.Context, po *domain.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(po).Error
}

func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Supplier").Where("id = ?", id).First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// GetScoped retrieves a purchase order only if it was issued to the caller's company
func (r *PurchaseOrderRepository) GetScoped(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	query := r.db.WithContext(ctx).Preload("Supplier").Where("purchase_orders.id = ?", id)
	query = ApplyOwnerScope(ctx, query, "purchase_orders.supplier_id")
	if err := query.First(&po).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PurchaseOrderRepository) ExistsForSupplierQuote(ctx context.Context, supplierQuoteID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PurchaseOrder{}).
		Where("supplier_quote_id = ?", supplierQuoteID).
		Count(&count).Error
	return count > 0, err
}

// ListScoped returns the purchase orders issued to the caller's company
func (r *PurchaseOrderRepository) ListScoped(ctx context.Context) ([]domain.PurchaseOrder, error) {
	var pos []domain.PurchaseOrder
	query := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}).Where("purchase_orders.status <> ?", domain.POStatusArchived)
	query = ApplyOwnerScope(ctx, query, "purchase_orders.supplier_id")
	err := query.Order("purchase_orders.created_at DESC").Find(&pos).Error
	return pos, err
}

// List returns purchase orders for admins. Archived rows are only returned
// when status asks for them.
func (r *PurchaseOrderRepository) List(ctx context.Context, status domain.PurchaseOrderStatus, page, pageSize int) ([]domain.PurchaseOrder, int64, error) {
	var pos []domain.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{})
	if status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status <> ?", domain.POStatusArchived)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := Paginate(query.Preload("Supplier"), page, pageSize).Order("created_at DESC").Find(&pos).Error
	return pos, total, err
}

// ListAll returns every purchase order for exports
func (r *PurchaseOrderRepository) ListAll(ctx context.Context) ([]domain.PurchaseOrder, error) {
	var pos []domain.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Supplier").Order("created_at ASC").Find(&pos).Error
	return pos, err
}

// UpdateFields updates selected columns of a purchase order
func (r *PurchaseOrderRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}).Where("id = ?", id).Updates(fields).Error
}

// MaxSequence returns the highest PO-NNNN sequence in use
func (r *PurchaseOrderRepository) MaxSequence(ctx context.Context) (int, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}).Pluck("po_number", &numbers).Error; err != nil {
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
