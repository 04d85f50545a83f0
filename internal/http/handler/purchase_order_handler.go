package handler

import (
	"net/http"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

// PurchaseOrderHandler serves the admin side of supplier purchase orders
type PurchaseOrderHandler struct {
	poService *service.PurchaseOrderService
	logger    *zap.Logger
}

func NewPurchaseOrderHandler(poService *service.PurchaseOrderService, logger *zap.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		poService: poService,
		logger:    logger,
	}
}

// @Summary List purchase orders
// @Description Archived purchase orders are excluded
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PurchaseOrderDTO}
// @Security BearerAuth
// @Router /admin/purchase-orders [get]
func (h *PurchaseOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	status := domain.PurchaseOrderStatus(r.URL.Query().Get("status"))

	result, err := h.poService.AdminList(r.Context(), status, page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "list purchase orders")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary List archived purchase orders
// @Tags Admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PurchaseOrderDTO}
// @Security BearerAuth
// @Router /admin/purchase-orders/archived [get]
func (h *PurchaseOrderHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.poService.ListArchived(r.Context(), page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "list archived purchase orders")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Issue a purchase order for an accepted supplier quote
// @Description Numbers the purchase order PO-NNNN and emails the supplier
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.CreatePurchaseOrderRequest true "Supplier quote"
// @Success 201 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePurchaseOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	po, err := h.poService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create purchase order")
		return
	}
	respondJSON(w, http.StatusCreated, po)
}

// @Summary Set purchase order progress
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID"
// @Param request body domain.UpdatePurchaseOrderStatusRequest true "Progress stage"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/purchase-orders/{id}/status [patch]
func (h *PurchaseOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "purchase order")
	if !ok {
		return
	}
	var req domain.UpdatePurchaseOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	po, err := h.poService.AdvanceStatus(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, h.logger, err, "update purchase order status")
		return
	}
	respondJSON(w, http.StatusOK, po)
}

// @Summary Archive a delivered purchase order
// @Tags Admin
// @Produce json
// @Param id path string true "Purchase order ID"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/purchase-orders/{id}/archive [post]
func (h *PurchaseOrderHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "purchase order")
	if !ok {
		return
	}

	po, err := h.poService.Archive(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "archive purchase order")
		return
	}
	respondJSON(w, http.StatusOK, po)
}

// @Summary Download the supplier invoice
// @Tags Admin
// @Produce application/octet-stream
// @Param id path string true "Purchase order ID"
// @Success 200
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/purchase-orders/{id}/invoice [get]
func (h *PurchaseOrderHandler) DownloadInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "purchase order")
	if !ok {
		return
	}

	d, err := h.poService.DownloadInvoice(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "download invoice")
		return
	}
	serveDownload(w, h.logger, d)
}
