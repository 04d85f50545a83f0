package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilters narrows admin order listings
type OrderFilters struct {
	Status   domain.OrderStatus
	Archived *bool
	Sort     SortConfig
}

var orderSortFields = map[string]string{
	"createdAt":   "sales_orders.created_at",
	"orderDate":   "sales_orders.order_date",
	"orderNumber": "sales_orders.order_number",
	"dueDate":     "sales_orders.due_date",
	"orderStatus": "sales_orders.order_status",
}

// SalesOrderRepository handles database operations for sales orders
type SalesOrderRepository struct {
	db *gorm.DB
}

func NewSalesOrderRepository(db *gorm.DB) *SalesOrderRepository {
	return &SalesOrderRepository{db: db}
}

func (r *SalesOrderRepository) Create(ctx context.Context, order *domain.SalesOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *SalesOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SalesOrder, error) {
	var order domain.SalesOrder
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetForUpdate loads the order with a row lock; call inside a transaction
func (r *SalesOrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.SalesOrder, error) {
	var order domain.SalesOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetScoped retrieves an order with shipments and invoices if the caller's company owns it
func (r *SalesOrderRepository) GetScoped(ctx context.Context, id uuid.UUID) (*domain.SalesOrder, error) {
	var order domain.SalesOrder
	query := r.db.WithContext(ctx).
		Preload("User").
		Preload("Shipments", func(db *gorm.DB) *gorm.DB { return db.Order("shipped_at ASC") }).
		Preload("Invoices", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("sales_orders.id = ?", id)
	query = ApplyOwnerScope(ctx, query, "sales_orders.user_id")
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *SalesOrderRepository) GetByRfqID(ctx context.Context, rfqID uuid.UUID) (*domain.SalesOrder, error) {
	var order domain.SalesOrder
	err := r.db.WithContext(ctx).Where("rfq_id = ?", rfqID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *SalesOrderRepository) ExistsForRfq(ctx context.Context, rfqID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.SalesOrder{}).Where("rfq_id = ?", rfqID).Count(&count).Error
	return count > 0, err
}

// ListScoped returns the caller company's orders, archived or active
func (r *SalesOrderRepository) ListScoped(ctx context.Context, archived bool) ([]domain.SalesOrder, error) {
	var orders []domain.SalesOrder
	query := r.db.WithContext(ctx).Model(&domain.SalesOrder{}).Where("sales_orders.is_archived = ?", archived)
	query = ApplyOwnerScope(ctx, query, "sales_orders.user_id")
	err := query.Order("sales_orders.order_date DESC").Find(&orders).Error
	return orders, err
}

// List returns orders for admins
func (r *SalesOrderRepository) List(ctx context.Context, filters OrderFilters, page, pageSize int) ([]domain.SalesOrder, int64, error) {
	var orders []domain.SalesOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.SalesOrder{})
	if filters.Status != "" {
		query = query.Where("sales_orders.order_status = ?", filters.Status)
	}
	if filters.Archived != nil {
		query = query.Where("sales_orders.is_archived = ?", *filters.Archived)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := BuildOrderClause(filters.Sort, orderSortFields, "sales_orders.created_at")
	err := Paginate(query.Preload("User"), page, pageSize).Order(order).Find(&orders).Error
	return orders, total, err
}

// ListAll returns every order for exports
func (r *SalesOrderRepository) ListAll(ctx context.Context) ([]domain.SalesOrder, error) {
	var orders []domain.SalesOrder
	err := r.db.WithContext(ctx).Preload("User").Order("order_date ASC").Find(&orders).Error
	return orders, err
}

// UpdateFields updates selected columns of an order
func (r *SalesOrderRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.SalesOrder{}).Where("id = ?", id).Updates(fields).Error
}

// AdvanceWaitingForPO moves an order of the quote out of waiting_for_po
func (r *SalesOrderRepository) AdvanceWaitingForPO(ctx context.Context, quoteID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.SalesOrder{}).
		Where("quote_id = ? AND order_status = ?", quoteID, domain.OrderStatusWaitingForPO).
		Updates(map[string]interface{}{"order_status": domain.OrderStatusPending, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

// MaxYearlySequence returns the highest sequence among order numbers of a two digit year
func (r *SalesOrderRepository) MaxYearlySequence(ctx context.Context, yy int) (int, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&domain.SalesOrder{}).Pluck("order_number", &numbers).Error; err != nil {
		return 0, err
	}
	return maxYearly(numbers, yy), nil
}

// ShipmentRepository handles database operations for shipments
type ShipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

func (r *ShipmentRepository) Create(ctx context.Context, shipment *domain.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *ShipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	var shipment domain.Shipment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *ShipmentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Shipment, error) {
	var shipments []domain.Shipment
	err := r.db.WithContext(ctx).Where("sales_order_id = ?", orderID).Order("shipped_at ASC").Find(&shipments).Error
	return shipments, err
}

func (r *ShipmentRepository) UpdateTracking(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Shipment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"tracking_status": status, "updated_at": time.Now().UTC()}).Error
}

// InvoiceRepository handles database operations for sales invoices
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.SalesInvoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SalesInvoice, error) {
	var invoice domain.SalesInvoice
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.SalesInvoice, error) {
	var invoices []domain.SalesInvoice
	err := r.db.WithContext(ctx).Where("sales_order_id = ?", orderID).Order("created_at ASC").Find(&invoices).Error
	return invoices, err
}

func (r *InvoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.SalesInvoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.InvoiceStatusPaid,
			"paid_at":    paidAt,
			"updated_at": time.Now().UTC(),
		}).Error
}

// MaxYearlySequence returns the highest sequence among invoice numbers of a two digit year
func (r *InvoiceRepository) MaxYearlySequence(ctx context.Context, yy int) (int, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&domain.SalesInvoice{}).Pluck("invoice_number", &numbers).Error; err != nil {
		return 0, err
	}
	return maxYearly(numbers, yy), nil
}
