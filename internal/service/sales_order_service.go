package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SalesOrderService handles orders, shipments and invoices
type SalesOrderService struct {
	db            *gorm.DB
	orderRepo     *repository.SalesOrderRepository
	rfqRepo       *repository.RfqRepository
	quoteRepo     *repository.SalesQuoteRepository
	shipmentRepo  *repository.ShipmentRepository
	invoiceRepo   *repository.InvoiceRepository
	userRepo      *repository.UserRepository
	numbering     *NumberingService
	notifications *NotificationService
	email         *EmailService
	logger        *zap.Logger
	now           func() time.Time
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(
	db *gorm.DB,
	orderRepo *repository.SalesOrderRepository,
	rfqRepo *repository.RfqRepository,
	quoteRepo *repository.SalesQuoteRepository,
	shipmentRepo *repository.ShipmentRepository,
	invoiceRepo *repository.InvoiceRepository,
	userRepo *repository.UserRepository,
	numbering *NumberingService,
	notifications *NotificationService,
	email *EmailService,
	logger *zap.Logger,
) *SalesOrderService {
	return &SalesOrderService{
		db:            db,
		orderRepo:     orderRepo,
		rfqRepo:       rfqRepo,
		quoteRepo:     quoteRepo,
		shipmentRepo:  shipmentRepo,
		invoiceRepo:   invoiceRepo,
		userRepo:      userRepo,
		numbering:     numbering,
		notifications: notifications,
		email:         email,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create opens an order for an accepted RFQ. The order snapshots the RFQ
// specs and takes the amount of the accepted quote. It starts pending when the customer
// already uploaded a purchase order, otherwise waiting_for_po.
func (s *SalesOrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.SalesOrderDTO, error) {
	rfq, err := s.rfqRepo.GetByID(ctx, req.RfqID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRfqNotFound
		}
		return nil, fmt.Errorf("failed to get RFQ: %w", err)
	}
	if rfq.Status != domain.RfqStatusAccepted {
		return nil, ErrRfqNotAccepted
	}

	quote, err := s.quoteRepo.GetAcceptedByRfq(ctx, rfq.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoQuoteForRfq
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	exists, err := s.orderRepo.ExistsForRfq(ctx, rfq.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing order: %w", err)
	}
	if exists {
		return nil, ErrOrderExists
	}

	status := domain.OrderStatusWaitingForPO
	if quote.HasPurchaseOrder() {
		status = domain.OrderStatusPending
	}

	order := &domain.SalesOrder{
		RfqID:             rfq.ID,
		QuoteID:           quote.ID,
		UserID:            rfq.UserID,
		ProjectName:       rfq.ProjectName,
		Material:          rfq.Material,
		MaterialGrade:     rfq.MaterialGrade,
		Finishing:         rfq.Finishing,
		Tolerance:         rfq.Tolerance,
		Quantity:          rfq.Quantity,
		QuantityShipped:   0,
		QuantityRemaining: rfq.Quantity,
		Amount:            quote.Amount,
		Currency:          quote.Currency,
		OrderStatus:       status,
		PaymentStatus:     domain.PaymentStatusUnpaid,
		OrderDate:         s.now(),
		DueDate:           req.DueDate,
		Notes:             req.Notes,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numbering.WithTx(tx).NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		if err := repository.NewSalesOrderRepository(tx).Create(ctx, order); err != nil {
			if isUniqueViolation(err) {
				return ErrOrderExists
			}
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales order created",
		zap.String("orderID", order.ID.String()),
		zap.String("number", order.OrderNumber),
		zap.String("status", string(order.OrderStatus)))

	s.notifications.Notify(ctx, order.UserID, domain.NotificationOrderCreated,
		"Order created",
		fmt.Sprintf("Order %s for %s has been created", order.OrderNumber, order.ProjectName),
		map[string]interface{}{"orderId": order.ID.String()})
	if rfq.User != nil {
		s.email.SendOrderCreated(ctx, rfq.User, order)
	}

	order.User = rfq.User
	dto := mapper.ToSalesOrderDTO(order)
	return &dto, nil
}

func (s *SalesOrderService) getOrder(ctx context.Context, id uuid.UUID) (*domain.SalesOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// UpdateStatus moves an order to any pipeline stage
func (s *SalesOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.SalesOrderDTO, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateFields(ctx, id, map[string]interface{}{"order_status": status}); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.OrderStatus = status

	s.logger.Info("order status updated",
		zap.String("orderID", id.String()),
		zap.String("status", string(status)))

	s.notifications.Notify(ctx, order.UserID, domain.NotificationOrderStatus,
		"Order status updated",
		fmt.Sprintf("Order %s is now %s", order.OrderNumber, status),
		map[string]interface{}{"orderId": order.ID.String(), "status": string(status)})
	if order.User != nil {
		s.email.SendOrderStatus(ctx, order.User, order)
	}

	dto := mapper.ToSalesOrderDTO(order)
	return &dto, nil
}

// UpdatePayment sets the payment status. Paid orders are archived; an
// archived order stays archived whatever the payment status becomes.
func (s *SalesOrderService) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) (*domain.SalesOrderDTO, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"payment_status": status}
	if status == domain.PaymentStatusPaid && !order.IsArchived {
		archivedAt := s.now()
		fields["is_archived"] = true
		fields["archived_at"] = archivedAt
		order.IsArchived = true
		order.ArchivedAt = &archivedAt
	}
	if err := s.orderRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	order.PaymentStatus = status

	s.logger.Info("order payment updated",
		zap.String("orderID", id.String()),
		zap.String("paymentStatus", string(status)),
		zap.Bool("archived", order.IsArchived))

	dto := mapper.ToSalesOrderDTO(order)
	return &dto, nil
}

// List returns the caller company's active orders
func (s *SalesOrderService) List(ctx context.Context) ([]domain.SalesOrderDTO, error) {
	orders, err := s.orderRepo.ListScoped(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return mapper.ToSalesOrderDTOs(orders), nil
}

// ListArchived returns the caller company's archived orders
func (s *SalesOrderService) ListArchived(ctx context.Context) ([]domain.SalesOrderDTO, error) {
	orders, err := s.orderRepo.ListScoped(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived orders: %w", err)
	}
	return mapper.ToSalesOrderDTOs(orders), nil
}

func (s *SalesOrderService) getScoped(ctx context.Context, id uuid.UUID) (*domain.SalesOrder, error) {
	order, err := s.orderRepo.GetScoped(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// Get returns an order with its shipments and invoices
func (s *SalesOrderService) Get(ctx context.Context, id uuid.UUID) (*domain.SalesOrderDTO, error) {
	order, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToSalesOrderDTO(order)
	return &dto, nil
}

// AdminList returns a page of orders filtered by status and archive flag
func (s *SalesOrderService) AdminList(ctx context.Context, filters repository.OrderFilters, page, pageSize int) (*domain.PaginatedResponse, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	page, pageSize = repository.NormalizePage(page, pageSize)

	orders, total, err := s.orderRepo.List(ctx, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return paginated(mapper.ToSalesOrderDTOs(orders), total, page, pageSize), nil
}

// CreateShipment records a partial delivery. The order row is locked while
// the remaining quantity is checked and decremented; an oversized shipment
// writes nothing.
func (s *SalesOrderService) CreateShipment(ctx context.Context, orderID uuid.UUID, req *domain.CreateShipmentRequest) (*domain.ShipmentDTO, error) {
	if req.QuantityShipped <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidInput)
	}
	tracking := req.TrackingStatus
	if tracking == "" {
		tracking = domain.OrderStatusShipped
	}
	if !tracking.IsValid() {
		return nil, ErrInvalidStatus
	}

	shipment := &domain.Shipment{
		SalesOrderID:    orderID,
		QuantityShipped: req.QuantityShipped,
		TrackingNumber:  req.TrackingNumber,
		Carrier:         req.Carrier,
		TrackingStatus:  tracking,
		ShippedAt:       s.now(),
		Notes:           req.Notes,
	}

	var order *domain.SalesOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repository.NewSalesOrderRepository(tx)

		var err error
		order, err = orders.GetForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if req.QuantityShipped > order.QuantityRemaining {
			return ErrShipmentExceedsRemaining
		}

		if err := repository.NewShipmentRepository(tx).Create(ctx, shipment); err != nil {
			return fmt.Errorf("failed to create shipment: %w", err)
		}

		order.QuantityShipped += req.QuantityShipped
		order.QuantityRemaining -= req.QuantityShipped
		fields := map[string]interface{}{
			"quantity_shipped":   order.QuantityShipped,
			"quantity_remaining": order.QuantityRemaining,
		}
		if order.QuantityRemaining == 0 && order.OrderStatus != domain.OrderStatusShipped && order.OrderStatus != domain.OrderStatusDelivered {
			order.OrderStatus = domain.OrderStatusShipped
			fields["order_status"] = domain.OrderStatusShipped
		}
		return orders.UpdateFields(ctx, orderID, fields)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("shipment recorded",
		zap.String("orderID", orderID.String()),
		zap.String("shipmentID", shipment.ID.String()),
		zap.Int("quantity", shipment.QuantityShipped),
		zap.Int("remaining", order.QuantityRemaining))

	s.notifications.Notify(ctx, order.UserID, domain.NotificationShipment,
		"Shipment on its way",
		fmt.Sprintf("%d pieces of order %s have shipped", shipment.QuantityShipped, order.OrderNumber),
		map[string]interface{}{"orderId": order.ID.String(), "shipmentId": shipment.ID.String()})

	dto := mapper.ToShipmentDTO(shipment)
	return &dto, nil
}

// UpdateShipmentTracking sets a shipment's tracking status independently of its order
func (s *SalesOrderService) UpdateShipmentTracking(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.ShipmentDTO, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	shipment, err := s.shipmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShipmentNotFound
		}
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	if err := s.shipmentRepo.UpdateTracking(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update tracking: %w", err)
	}
	shipment.TrackingStatus = status
	dto := mapper.ToShipmentDTO(shipment)
	return &dto, nil
}

// ListShipments returns the shipments of an order the caller may see
func (s *SalesOrderService) ListShipments(ctx context.Context, orderID uuid.UUID) ([]domain.ShipmentDTO, error) {
	if _, err := s.getScoped(ctx, orderID); err != nil {
		return nil, err
	}
	shipments, err := s.shipmentRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	return mapper.ToShipmentDTOs(shipments), nil
}

// CreateInvoice bills an order. The amount defaults to the order amount.
func (s *SalesOrderService) CreateInvoice(ctx context.Context, orderID uuid.UUID, req *domain.CreateInvoiceRequest) (*domain.SalesInvoiceDTO, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	amount := order.Amount
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
		}
		amount = decimal.NewFromFloat(*req.Amount).Round(2)
	}

	invoice := &domain.SalesInvoice{
		SalesOrderID: order.ID,
		Amount:       amount,
		Currency:     order.Currency,
		DueDate:      req.DueDate,
		Status:       domain.InvoiceStatusUnpaid,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numbering.WithTx(tx).NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number
		return repository.NewInvoiceRepository(tx).Create(ctx, invoice)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("invoice created",
		zap.String("invoiceID", invoice.ID.String()),
		zap.String("number", invoice.InvoiceNumber),
		zap.String("orderID", order.ID.String()))

	dto := mapper.ToSalesInvoiceDTO(invoice)
	return &dto, nil
}

// MarkInvoicePaid records payment of an invoice
func (s *SalesOrderService) MarkInvoicePaid(ctx context.Context, id uuid.UUID) (*domain.SalesInvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice.Status == domain.InvoiceStatusPaid {
		dto := mapper.ToSalesInvoiceDTO(invoice)
		return &dto, nil
	}

	paidAt := s.now()
	if err := s.invoiceRepo.MarkPaid(ctx, id, paidAt); err != nil {
		return nil, fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	invoice.Status = domain.InvoiceStatusPaid
	invoice.PaidAt = &paidAt

	dto := mapper.ToSalesInvoiceDTO(invoice)
	return &dto, nil
}

// ListInvoices returns the invoices of an order the caller may see
func (s *SalesOrderService) ListInvoices(ctx context.Context, orderID uuid.UUID) ([]domain.SalesInvoiceDTO, error) {
	if _, err := s.getScoped(ctx, orderID); err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return mapper.ToSalesInvoiceDTOs(invoices), nil
}
