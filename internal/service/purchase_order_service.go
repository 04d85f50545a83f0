package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PurchaseOrderService handles purchase orders issued to winning suppliers
type PurchaseOrderService struct {
	db                *gorm.DB
	poRepo            *repository.PurchaseOrderRepository
	supplierQuoteRepo *repository.SupplierQuoteRepository
	numbering         *NumberingService
	uploader          *Uploader
	notifications     *NotificationService
	email             *EmailService
	logger            *zap.Logger
	now               func() time.Time
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	db *gorm.DB,
	poRepo *repository.PurchaseOrderRepository,
	supplierQuoteRepo *repository.SupplierQuoteRepository,
	numbering *NumberingService,
	uploader *Uploader,
	notifications *NotificationService,
	email *EmailService,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		db:                db,
		poRepo:            poRepo,
		supplierQuoteRepo: supplierQuoteRepo,
		numbering:         numbering,
		uploader:          uploader,
		notifications:     notifications,
		email:             email,
		logger:            logger,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a purchase order for an accepted supplier quote
func (s *PurchaseOrderService) Create(ctx context.Context, req *domain.CreatePurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	quote, err := s.supplierQuoteRepo.GetByID(ctx, req.SupplierQuoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get supplier quote: %w", err)
	}
	if quote.Status != domain.SupplierQuoteStatusAccepted {
		return nil, ErrSupplierQuoteNotAccepted
	}
	exists, err := s.poRepo.ExistsForSupplierQuote(ctx, quote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing purchase order: %w", err)
	}
	if exists {
		return nil, ErrPurchaseOrderExists
	}

	po := &domain.PurchaseOrder{
		SupplierQuoteID: quote.ID,
		SupplierID:      quote.SupplierID,
		RfqID:           quote.RfqID,
		Amount:          quote.TotalAmount,
		Currency:        quote.Currency,
		DueDate:         req.DueDate,
		Notes:           req.Notes,
		Status:          domain.POStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numbering.WithTx(tx).NextPurchaseOrderNumber(ctx)
		if err != nil {
			return err
		}
		po.PONumber = number
		if err := repository.NewPurchaseOrderRepository(tx).Create(ctx, po); err != nil {
			if isUniqueViolation(err) {
				return ErrPurchaseOrderExists
			}
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order created",
		zap.String("purchaseOrderID", po.ID.String()),
		zap.String("number", po.PONumber),
		zap.String("supplierID", po.SupplierID.String()))

	s.notifications.Notify(ctx, po.SupplierID, domain.NotificationPurchaseOrder,
		"New purchase order",
		fmt.Sprintf("Purchase order %s awaits your response", po.PONumber),
		map[string]interface{}{"purchaseOrderId": po.ID.String()})
	if quote.Supplier != nil {
		s.email.SendPurchaseOrder(ctx, quote.Supplier, po)
	}

	po.Supplier = quote.Supplier
	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

func (s *PurchaseOrderService) getScoped(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	po, err := s.poRepo.GetScoped(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseOrderNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}
	return po, nil
}

// Get returns a purchase order issued to the caller's company
func (s *PurchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// Respond lets the supplier accept or decline a pending purchase order
func (s *PurchaseOrderService) Respond(ctx context.Context, id uuid.UUID, req *domain.RespondPurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	var status domain.PurchaseOrderStatus
	switch req.Action {
	case "accept":
		status = domain.POStatusAccepted
	case "decline":
		status = domain.POStatusDeclined
	default:
		return nil, fmt.Errorf("%w: action must be accept or decline", ErrInvalidInput)
	}

	po, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != domain.POStatusPending {
		return nil, ErrPurchaseOrderNotPending
	}

	respondedAt := s.now()
	if err := s.poRepo.UpdateFields(ctx, id, map[string]interface{}{
		"status":         status,
		"supplier_notes": req.Notes,
		"responded_at":   respondedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to update purchase order: %w", err)
	}
	po.Status = status
	po.SupplierNotes = req.Notes
	po.RespondedAt = &respondedAt

	s.logger.Info("purchase order answered",
		zap.String("purchaseOrderID", id.String()),
		zap.String("status", string(status)))

	s.notifications.NotifyAdmins(ctx, domain.NotificationPurchaseOrder,
		fmt.Sprintf("Purchase order %s %s", po.PONumber, status),
		fmt.Sprintf("The supplier %s purchase order %s", status, po.PONumber),
		map[string]interface{}{"purchaseOrderId": po.ID.String()})

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// AdvanceStatus moves an accepted purchase order through the fulfilment
// stages. Admins and the owning supplier may call it.
func (s *PurchaseOrderService) AdvanceStatus(ctx context.Context, id uuid.UUID, status domain.PurchaseOrderStatus) (*domain.PurchaseOrderDTO, error) {
	if !status.IsProgressStage() {
		return nil, ErrInvalidStatus
	}
	po, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != domain.POStatusAccepted && !po.Status.IsProgressStage() {
		return nil, ErrPurchaseOrderNotActive
	}

	if err := s.poRepo.UpdateFields(ctx, id, map[string]interface{}{"status": status}); err != nil {
		return nil, fmt.Errorf("failed to update purchase order status: %w", err)
	}
	po.Status = status

	s.logger.Info("purchase order status updated",
		zap.String("purchaseOrderID", id.String()),
		zap.String("status", string(status)))

	title := fmt.Sprintf("Purchase order %s updated", po.PONumber)
	message := fmt.Sprintf("Purchase order %s is now %s", po.PONumber, status)
	data := map[string]interface{}{"purchaseOrderId": po.ID.String(), "status": string(status)}
	if callerIsAdmin(ctx) {
		s.notifications.Notify(ctx, po.SupplierID, domain.NotificationPurchaseOrder, title, message, data)
	} else {
		s.notifications.NotifyAdmins(ctx, domain.NotificationPurchaseOrder, title, message, data)
	}

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// UploadInvoice stores the supplier's invoice for a delivered purchase order
func (s *PurchaseOrderService) UploadInvoice(ctx context.Context, id uuid.UUID, up *Upload) (*domain.PurchaseOrderDTO, error) {
	po, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != domain.POStatusDelivered {
		return nil, ErrPurchaseOrderNotDelivery
	}

	stored, err := s.uploader.Store(ctx, "supplier-invoices", up)
	if err != nil {
		return nil, err
	}
	uploadedAt := s.now()
	if err := s.poRepo.UpdateFields(ctx, id, map[string]interface{}{
		"invoice_path":        stored.Path,
		"invoice_file_name":   stored.FileName,
		"invoice_uploaded_at": uploadedAt,
	}); err != nil {
		s.uploader.Remove(ctx, stored.Path)
		return nil, fmt.Errorf("failed to save supplier invoice: %w", err)
	}
	s.uploader.Remove(ctx, po.InvoicePath)

	po.InvoicePath = stored.Path
	po.InvoiceFileName = stored.FileName
	po.InvoiceUploadedAt = &uploadedAt

	s.notifications.NotifyAdmins(ctx, domain.NotificationPurchaseOrder,
		"Supplier invoice received",
		fmt.Sprintf("An invoice was uploaded for purchase order %s", po.PONumber),
		map[string]interface{}{"purchaseOrderId": po.ID.String()})

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// DownloadInvoice opens the supplier invoice of a purchase order
func (s *PurchaseOrderService) DownloadInvoice(ctx context.Context, id uuid.UUID) (*Download, error) {
	po, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.uploader.Open(ctx, po.InvoicePath, po.InvoiceFileName, "")
}

// Archive closes a delivered purchase order
func (s *PurchaseOrderService) Archive(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok || !userCtx.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	po, err := s.getScoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != domain.POStatusDelivered {
		return nil, ErrPurchaseOrderNotDelivery
	}

	archivedAt := s.now()
	if err := s.poRepo.UpdateFields(ctx, id, map[string]interface{}{
		"status":      domain.POStatusArchived,
		"archived_at": archivedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to archive purchase order: %w", err)
	}
	po.Status = domain.POStatusArchived
	po.ArchivedAt = &archivedAt

	s.logger.Info("purchase order archived", zap.String("purchaseOrderID", id.String()))

	dto := mapper.ToPurchaseOrderDTO(po)
	return &dto, nil
}

// AdminList returns a page of purchase orders. Archived ones are excluded
// unless status is archived.
func (s *PurchaseOrderService) AdminList(ctx context.Context, status domain.PurchaseOrderStatus, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	pos, total, err := s.poRepo.List(ctx, status, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	return paginated(mapper.ToPurchaseOrderDTOs(pos), total, page, pageSize), nil
}

// ListArchived returns a page of archived purchase orders
func (s *PurchaseOrderService) ListArchived(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	return s.AdminList(ctx, domain.POStatusArchived, page, pageSize)
}

// ListMine returns the open purchase orders of the caller's company
func (s *PurchaseOrderService) ListMine(ctx context.Context) ([]domain.PurchaseOrderDTO, error) {
	pos, err := s.poRepo.ListScoped(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	return mapper.ToPurchaseOrderDTOs(pos), nil
}
