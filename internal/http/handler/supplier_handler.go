package handler

import (
	"net/http"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

// SupplierHandler serves the supplier portal: assignments, bids and the
// purchase orders issued to the supplier
type SupplierHandler struct {
	quoteService   *service.SupplierQuoteService
	poService      *service.PurchaseOrderService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewSupplierHandler(
	quoteService *service.SupplierQuoteService,
	poService *service.PurchaseOrderService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *SupplierHandler {
	return &SupplierHandler{
		quoteService:   quoteService,
		poService:      poService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ListAssignments godoc
// @Summary List RFQs assigned to the caller's company
// @Tags Supplier
// @Produce json
// @Success 200 {array} domain.RfqAssignmentDTO
// @Security BearerAuth
// @Router /supplier/assignments [get]
func (h *SupplierHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.quoteService.ListMyAssignments(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list assignments")
		return
	}
	respondJSON(w, http.StatusOK, assignments)
}

// GetRfq godoc
// @Summary Get an assigned RFQ
// @Description The customer's identity is not included
// @Tags Supplier
// @Produce json
// @Param id path string true "RFQ ID"
// @Success 200 {object} domain.RfqDTO
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /supplier/rfqs/{id} [get]
func (h *SupplierHandler) GetRfq(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}

	rfq, err := h.quoteService.GetAssignedRfq(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get RFQ")
		return
	}
	respondJSON(w, http.StatusOK, rfq)
}

// SubmitQuote godoc
// @Summary Submit a bid for an assigned RFQ
// @Description Totals are computed server side from the cost breakdown
// @Tags Supplier
// @Accept json
// @Produce json
// @Param id path string true "RFQ ID"
// @Param request body domain.SubmitSupplierQuoteRequest true "Cost breakdown"
// @Success 201 {object} domain.SupplierQuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /supplier/rfqs/{id}/quote [post]
func (h *SupplierHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}
	var req domain.SubmitSupplierQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quote, err := h.quoteService.SubmitQuote(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "submit quote")
		return
	}
	respondJSON(w, http.StatusCreated, quote)
}

// ListQuotes godoc
// @Summary List bids of the caller's company
// @Tags Supplier
// @Produce json
// @Success 200 {array} domain.SupplierQuoteDTO
// @Security BearerAuth
// @Router /supplier/quotes [get]
func (h *SupplierHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quoteService.ListMyQuotes(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list quotes")
		return
	}
	respondJSON(w, http.StatusOK, quotes)
}

// ListPurchaseOrders godoc
// @Summary List purchase orders issued to the caller's company
// @Tags Supplier
// @Produce json
// @Success 200 {array} domain.PurchaseOrderDTO
// @Security BearerAuth
// @Router /supplier/purchase-orders [get]
func (h *SupplierHandler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	pos, err := h.poService.ListMine(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list purchase orders")
		return
	}
	respondJSON(w, http.StatusOK, pos)
}

// RespondPurchaseOrder godoc
// @Summary Accept or decline a purchase order
// @Tags Supplier
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID"
// @Param request body domain.RespondPurchaseOrderRequest true "accept or decline"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /supplier/purchase-orders/{id}/respond [post]
func (h *SupplierHandler) RespondPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "purchase order")
	if !ok {
		return
	}
	var req domain.RespondPurchaseOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	po, err := h.poService.Respond(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "respond to purchase order")
		return
	}
	respondJSON(w, http.StatusOK, po)
}

// UpdatePurchaseOrderStatus godoc
// @Summary Report fulfilment progress
// @Tags Supplier
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID"
// @Param request body domain.UpdatePurchaseOrderStatusRequest true "Progress stage"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /supplier/purchase-orders/{id}/status [patch]
func (h *SupplierHandler) UpdatePurchaseOrderStatus(w http.ResponseWriter, r *http.Request) {
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

// UploadInvoice godoc
// @Summary Upload the invoice for a delivered purchase order
// @Tags Supplier
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Purchase order ID"
// @Param file formData file true "Invoice document"
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 413 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /supplier/purchase-orders/{id}/invoice [post]
func (h *SupplierHandler) UploadInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "purchase order")
	if !ok {
		return
	}
	up, file, ok := readUpload(w, r, "file", h.maxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	po, err := h.poService.UploadInvoice(r.Context(), id, up)
	if err != nil {
		handleServiceError(w, h.logger, err, "upload invoice")
		return
	}
	respondJSON(w, http.StatusOK, po)
}

// @Summary List bids on an RFQ
// @Description Cheapest first
// @Tags Admin
// @Produce json
// @Param id path string true "RFQ ID"
// @Success 200 {array} domain.SupplierQuoteDTO
// @Security BearerAuth
// @Router /admin/rfqs/{id}/supplier-quotes [get]
func (h *SupplierHandler) ListRfqQuotes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}

	quotes, err := h.quoteService.ListByRfq(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list supplier quotes")
		return
	}
	respondJSON(w, http.StatusOK, quotes)
}

// @Summary Accept a supplier bid
// @Description Every other bid on the RFQ becomes not_selected
// @Tags Admin
// @Produce json
// @Param id path string true "Supplier quote ID"
// @Success 200 {object} domain.SupplierQuoteDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/supplier-quotes/{id}/accept [post]
func (h *SupplierHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "supplier quote")
	if !ok {
		return
	}

	quote, err := h.quoteService.Accept(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "accept supplier quote")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}
