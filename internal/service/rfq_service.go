package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reorderPrefix = "REORDER: "

// RfqService handles business logic for requests for quote
type RfqService struct {
	db            *gorm.DB
	rfqRepo       *repository.RfqRepository
	orderRepo     *repository.SalesOrderRepository
	assignRepo    *repository.RfqAssignmentRepository
	userRepo      *repository.UserRepository
	numbering     *NumberingService
	notifications *NotificationService
	email         *EmailService
	logger        *zap.Logger
}

// NewRfqService creates a new RfqService
func NewRfqService(
	db *gorm.DB,
	rfqRepo *repository.RfqRepository,
	orderRepo *repository.SalesOrderRepository,
	assignRepo *repository.RfqAssignmentRepository,
	userRepo *repository.UserRepository,
	numbering *NumberingService,
	notifications *NotificationService,
	email *EmailService,
	logger *zap.Logger,
) *RfqService {
	return &RfqService{
		db:            db,
		rfqRepo:       rfqRepo,
		orderRepo:     orderRepo,
		assignRepo:    assignRepo,
		userRepo:      userRepo,
		numbering:     numbering,
		notifications: notifications,
		email:         email,
		logger:        logger,
	}
}

func rfqFromRequest(userID uuid.UUID, req *domain.CreateRfqRequest) *domain.RFQ {
	return &domain.RFQ{
		UserID:                       userID,
		ProjectName:                  strings.TrimSpace(req.ProjectName),
		Material:                     req.Material,
		MaterialGrade:                req.MaterialGrade,
		Finishing:                    req.Finishing,
		Tolerance:                    req.Tolerance,
		Quantity:                     req.Quantity,
		ManufacturingProcess:         req.ManufacturingProcess,
		InternationalManufacturingOK: req.InternationalManufacturingOK,
		Notes:                        req.Notes,
		Status:                       domain.RfqStatusSubmitted,
	}
}

// Create submits an RFQ for the calling customer
func (s *RfqService) Create(ctx context.Context, req *domain.CreateRfqRequest) (*domain.RfqDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.submit(ctx, rfqFromRequest(userCtx.UserID, req))
}

// AdminCreate submits an RFQ on behalf of a customer
func (s *RfqService) AdminCreate(ctx context.Context, req *domain.AdminCreateRfqRequest) (*domain.RfqDTO, error) {
	customer, err := s.userRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("%w: RFQs can only be created for customers", ErrInvalidInput)
	}
	return s.submit(ctx, rfqFromRequest(customer.ID, &req.CreateRfqRequest))
}

func (s *RfqService) submit(ctx context.Context, rfq *domain.RFQ) (*domain.RfqDTO, error) {
	if rfq.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidInput)
	}
	if err := s.rfqRepo.Create(ctx, rfq); err != nil {
		return nil, fmt.Errorf("failed to create RFQ: %w", err)
	}

	created, err := s.rfqRepo.GetByID(ctx, rfq.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload RFQ: %w", err)
	}

	s.logger.Info("RFQ submitted",
		zap.String("rfqID", created.ID.String()),
		zap.String("userID", created.UserID.String()))

	s.notifications.NotifyAdmins(ctx, domain.NotificationRfqSubmitted,
		"New RFQ submitted",
		fmt.Sprintf("%s submitted an RFQ for %s", customerName(created.User), created.ProjectName),
		map[string]interface{}{"rfqId": created.ID.String()})

	if admins, err := s.userRepo.ListByRole(ctx, domain.RoleAdmin); err != nil {
		s.logger.Warn("failed to load admins for RFQ email", zap.Error(err))
	} else {
		s.email.SendRfqSubmitted(ctx, admins, created, created.User)
	}

	dto := mapper.ToRfqDTO(created)
	return &dto, nil
}

func customerName(u *domain.User) string {
	if u == nil {
		return "A customer"
	}
	return u.Name
}

// List returns the RFQs of the caller's company
func (s *RfqService) List(ctx context.Context) ([]domain.RfqDTO, error) {
	rfqs, err := s.rfqRepo.ListScoped(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list RFQs: %w", err)
	}
	return mapper.ToRfqDTOs(rfqs), nil
}

// Get returns an RFQ the caller's company owns
func (s *RfqService) Get(ctx context.Context, id uuid.UUID) (*domain.RfqDTO, error) {
	rfq, err := s.rfqRepo.GetScoped(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRfqNotFound
		}
		return nil, fmt.Errorf("failed to get RFQ: %w", err)
	}
	dto := mapper.ToRfqDTO(rfq)
	return &dto, nil
}

// AdminList returns a page of RFQs, optionally filtered by status
func (s *RfqService) AdminList(ctx context.Context, filters repository.RfqFilters, page, pageSize int) (*domain.PaginatedResponse, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	page, pageSize = repository.NormalizePage(page, pageSize)

	rfqs, total, err := s.rfqRepo.List(ctx, filters, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list RFQs: %w", err)
	}
	return paginated(mapper.ToRfqDTOs(rfqs), total, page, pageSize), nil
}

// AdminUpdateStatus sets any valid RFQ status
func (s *RfqService) AdminUpdateStatus(ctx context.Context, id uuid.UUID, status domain.RfqStatus) (*domain.RfqDTO, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.rfqRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRfqNotFound
		}
		return nil, fmt.Errorf("failed to get RFQ: %w", err)
	}
	if err := s.rfqRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update RFQ status: %w", err)
	}
	rfq, err := s.rfqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload RFQ: %w", err)
	}

	s.logger.Info("RFQ status updated",
		zap.String("rfqID", id.String()),
		zap.String("status", string(status)))

	dto := mapper.ToRfqDTO(rfq)
	return &dto, nil
}

// Reorder creates a new RFQ from the specs snapshot of one of the caller's orders
func (s *RfqService) Reorder(ctx context.Context, orderID uuid.UUID) (*domain.RfqDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	order, err := s.orderRepo.GetScoped(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	var source *domain.RFQ
	if original, err := s.rfqRepo.GetByID(ctx, order.RfqID); err == nil {
		source = original
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get original RFQ: %w", err)
	}

	rfq := &domain.RFQ{
		UserID:        userCtx.UserID,
		ProjectName:   reorderPrefix + order.ProjectName,
		Material:      order.Material,
		MaterialGrade: order.MaterialGrade,
		Finishing:     order.Finishing,
		Tolerance:     order.Tolerance,
		Quantity:      order.Quantity,
		Status:        domain.RfqStatusSubmitted,
		SourceOrderID: &order.ID,
	}
	if source != nil {
		rfq.ManufacturingProcess = source.ManufacturingProcess
		rfq.InternationalManufacturingOK = source.InternationalManufacturingOK
		rfq.Notes = source.Notes
	}

	return s.submit(ctx, rfq)
}

// AssignSuppliers invites suppliers to quote an RFQ. Existing assignments
// are left untouched. The RFQ gets its SQTE reference number on first
// assignment and moves to sent_to_suppliers.
func (s *RfqService) AssignSuppliers(ctx context.Context, rfqID uuid.UUID, req *domain.AssignSuppliersRequest) ([]domain.RfqAssignmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	suppliers, err := s.userRepo.ListByIDs(ctx, req.SupplierIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}
	if len(suppliers) != len(uniqueIDs(req.SupplierIDs)) {
		return nil, ErrNotSupplier
	}
	for _, u := range suppliers {
		if u.Role != domain.RoleSupplier {
			return nil, ErrNotSupplier
		}
	}

	var rfq *domain.RFQ
	var added []domain.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rfqs := repository.NewRfqRepository(tx)
		assignments := repository.NewRfqAssignmentRepository(tx)

		var err error
		rfq, err = rfqs.GetByID(ctx, rfqID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRfqNotFound
			}
			return err
		}

		for _, supplier := range suppliers {
			created, err := assignments.CreateIfMissing(ctx, &domain.RfqAssignment{
				RfqID:        rfq.ID,
				SupplierID:   supplier.ID,
				AssignedByID: userCtx.UserID,
				DueDate:      req.DueDate,
				Status:       domain.AssignmentStatusAssigned,
			})
			if err != nil {
				return fmt.Errorf("failed to create assignment: %w", err)
			}
			if created {
				added = append(added, supplier)
			}
		}

		if rfq.ReferenceNumber == nil {
			number, err := s.numbering.WithTx(tx).NextRfqReferenceNumber(ctx)
			if err != nil {
				return err
			}
			if err := rfqs.SetReferenceNumber(ctx, rfq.ID, number); err != nil {
				return fmt.Errorf("failed to set reference number: %w", err)
			}
			rfq.ReferenceNumber = &number
		}
		return rfqs.UpdateStatus(ctx, rfq.ID, domain.RfqStatusSentToSuppliers)
	})
	if err != nil {
		return nil, err
	}
	rfq.Status = domain.RfqStatusSentToSuppliers

	s.logger.Info("suppliers assigned to RFQ",
		zap.String("rfqID", rfq.ID.String()),
		zap.Int("requested", len(suppliers)),
		zap.Int("added", len(added)))

	ref := ""
	if rfq.ReferenceNumber != nil {
		ref = *rfq.ReferenceNumber
	}
	for i := range added {
		supplier := &added[i]
		s.notifications.Notify(ctx, supplier.ID, domain.NotificationSupplierAssignment,
			"New RFQ assigned",
			fmt.Sprintf("You have been invited to quote %s", ref),
			map[string]interface{}{"rfqId": rfq.ID.String(), "referenceNumber": ref})
		s.email.SendSupplierAssignment(ctx, supplier, rfq, req.DueDate)
	}

	return s.ListAssignments(ctx, rfq.ID)
}

// ListAssignments returns the supplier assignments of an RFQ
func (s *RfqService) ListAssignments(ctx context.Context, rfqID uuid.UUID) ([]domain.RfqAssignmentDTO, error) {
	assignments, err := s.assignRepo.ListByRfq(ctx, rfqID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return mapper.ToRfqAssignmentDTOs(assignments), nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func paginated(data interface{}, total int64, page, pageSize int) *domain.PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
