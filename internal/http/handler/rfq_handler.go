package handler

import (
	"net/http"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

type RfqHandler struct {
	rfqService *service.RfqService
	logger     *zap.Logger
}

func NewRfqHandler(rfqService *service.RfqService, logger *zap.Logger) *RfqHandler {
	return &RfqHandler{
		rfqService: rfqService,
		logger:     logger,
	}
}

// Create godoc
// @Summary Submit an RFQ
// @Description Creates a quote request for the caller and notifies the admins
// @Tags RFQs
// @Accept json
// @Produce json
// @Param request body domain.CreateRfqRequest true "Part specification"
// @Success 201 {object} domain.RfqDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfqs [post]
func (h *RfqHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRfqRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rfq, err := h.rfqService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create RFQ")
		return
	}
	respondJSON(w, http.StatusCreated, rfq)
}

// List godoc
// @Summary List RFQs of the caller's company
// @Tags RFQs
// @Produce json
// @Success 200 {array} domain.RfqDTO
// @Security BearerAuth
// @Router /rfqs [get]
func (h *RfqHandler) List(w http.ResponseWriter, r *http.Request) {
	rfqs, err := h.rfqService.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list RFQs")
		return
	}
	respondJSON(w, http.StatusOK, rfqs)
}

// GetByID godoc
// @Summary Get an RFQ
// @Tags RFQs
// @Produce json
// @Param id path string true "RFQ ID"
// @Success 200 {object} domain.RfqDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfqs/{id} [get]
func (h *RfqHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}

	rfq, err := h.rfqService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get RFQ")
		return
	}
	respondJSON(w, http.StatusOK, rfq)
}

// Reorder godoc
// @Summary Reorder a past order
// @Description Submits a new RFQ that copies the specification of an existing order
// @Tags RFQs
// @Produce json
// @Param id path string true "Order ID"
// @Success 201 {object} domain.RfqDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /orders/{id}/reorder [post]
func (h *RfqHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}

	rfq, err := h.rfqService.Reorder(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "reorder")
		return
	}
	respondJSON(w, http.StatusCreated, rfq)
}

// @Summary List all RFQs
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter" Enums(submitted, quoted, accepted, declined, sent_to_suppliers)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, projectName, quantity, status)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.RfqDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/rfqs [get]
func (h *RfqHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	filters := repository.RfqFilters{
		Status: domain.RfqStatus(r.URL.Query().Get("status")),
		Sort:   parseSort(r),
	}

	result, err := h.rfqService.AdminList(r.Context(), filters, page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "list RFQs")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create an RFQ on behalf of a customer
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.AdminCreateRfqRequest true "Customer and part specification"
// @Success 201 {object} domain.RfqDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/rfqs [post]
func (h *RfqHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminCreateRfqRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rfq, err := h.rfqService.AdminCreate(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create RFQ")
		return
	}
	respondJSON(w, http.StatusCreated, rfq)
}

// @Summary Set RFQ status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "RFQ ID"
// @Param request body domain.UpdateRfqStatusRequest true "Status"
// @Success 200 {object} domain.RfqDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/rfqs/{id}/status [patch]
func (h *RfqHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}
	var req domain.UpdateRfqStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rfq, err := h.rfqService.AdminUpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, h.logger, err, "update RFQ status")
		return
	}
	respondJSON(w, http.StatusOK, rfq)
}

// @Summary Assign suppliers to an RFQ
// @Description Suppliers already assigned are kept; new ones are notified by email
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "RFQ ID"
// @Param request body domain.AssignSuppliersRequest true "Suppliers and due date"
// @Success 200 {array} domain.RfqAssignmentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/rfqs/{id}/assign-suppliers [post]
func (h *RfqHandler) AssignSuppliers(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}
	var req domain.AssignSuppliersRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	assignments, err := h.rfqService.AssignSuppliers(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "assign suppliers")
		return
	}
	respondJSON(w, http.StatusOK, assignments)
}

// @Summary List supplier assignments of an RFQ
// @Tags Admin
// @Produce json
// @Param id path string true "RFQ ID"
// @Success 200 {array} domain.RfqAssignmentDTO
// @Security BearerAuth
// @Router /admin/rfqs/{id}/assignments [get]
func (h *RfqHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}

	assignments, err := h.rfqService.ListAssignments(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list assignments")
		return
	}
	respondJSON(w, http.StatusOK, assignments)
}
