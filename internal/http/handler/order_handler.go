package handler

import (
	"net/http"
	"strconv"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

// OrderHandler serves sales orders, shipments and invoices
type OrderHandler struct {
	orderService *service.SalesOrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.SalesOrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// List godoc
// @Summary List open orders of the caller's company
// @Tags Orders
// @Produce json
// @Success 200 {array} domain.SalesOrderDTO
// @Security BearerAuth
// @Router /orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// ListArchived godoc
// @Summary List archived (paid) orders of the caller's company
// @Tags Orders
// @Produce json
// @Success 200 {array} domain.SalesOrderDTO
// @Security BearerAuth
// @Router /orders/archived [get]
func (h *OrderHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListArchived(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list archived orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetByID godoc
// @Summary Get an order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.SalesOrderDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get order")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// ListShipments godoc
// @Summary List shipments of an order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {array} domain.ShipmentDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /orders/{id}/shipments [get]
func (h *OrderHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}

	shipments, err := h.orderService.ListShipments(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list shipments")
		return
	}
	respondJSON(w, http.StatusOK, shipments)
}

// ListInvoices godoc
// @Summary List invoices of an order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {array} domain.SalesInvoiceDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /orders/{id}/invoices [get]
func (h *OrderHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}

	invoices, err := h.orderService.ListInvoices(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list invoices")
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

// @Summary List all orders
// @Tags Admin
// @Produce json
// @Param status query string false "Order status filter"
// @Param archived query bool false "Archived filter"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param sortBy query string false "Sort field" Enums(createdAt, orderDate, orderNumber, dueDate, orderStatus)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.SalesOrderDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/orders [get]
func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	filters := repository.OrderFilters{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Sort:   parseSort(r),
	}
	if v := r.URL.Query().Get("archived"); v != "" {
		archived, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid archived: must be true or false")
			return
		}
		filters.Archived = &archived
	}

	result, err := h.orderService.AdminList(r.Context(), filters, page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "list orders")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create an order from an accepted RFQ
// @Description Copies the RFQ and quote into a SORD-YYNNN order waiting for the customer PO
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.CreateOrderRequest true "RFQ"
// @Success 201 {object} domain.SalesOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create order")
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// @Summary Set order status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body domain.UpdateOrderStatusRequest true "Status"
// @Success 200 {object} domain.SalesOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), id, req.OrderStatus)
	if err != nil {
		handleServiceError(w, h.logger, err, "update order status")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// @Summary Set payment status
// @Description Marking an order paid archives it
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body domain.UpdatePaymentStatusRequest true "Payment status"
// @Success 200 {object} domain.SalesOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/orders/{id}/payment [patch]
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.UpdatePaymentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.UpdatePayment(r.Context(), id, req.PaymentStatus)
	if err != nil {
		handleServiceError(w, h.logger, err, "update payment status")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// @Summary Record a shipment
// @Description Fails with 400 when the quantity exceeds what remains to ship
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body domain.CreateShipmentRequest true "Shipment"
// @Success 201 {object} domain.ShipmentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/orders/{id}/shipments [post]
func (h *OrderHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.CreateShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shipment, err := h.orderService.CreateShipment(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create shipment")
		return
	}
	respondJSON(w, http.StatusCreated, shipment)
}

// @Summary Update shipment tracking status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Shipment ID"
// @Param request body domain.UpdateTrackingRequest true "Tracking status"
// @Success 200 {object} domain.ShipmentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/shipments/{id}/tracking [patch]
func (h *OrderHandler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "shipment")
	if !ok {
		return
	}
	var req domain.UpdateTrackingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shipment, err := h.orderService.UpdateShipmentTracking(r.Context(), id, req.TrackingStatus)
	if err != nil {
		handleServiceError(w, h.logger, err, "update shipment tracking")
		return
	}
	respondJSON(w, http.StatusOK, shipment)
}

// @Summary Issue an invoice
// @Description Numbers the invoice SINV-YYNNN; the amount defaults to the order total
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body domain.CreateInvoiceRequest true "Invoice"
// @Success 201 {object} domain.SalesInvoiceDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/orders/{id}/invoices [post]
func (h *OrderHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.CreateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	invoice, err := h.orderService.CreateInvoice(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create invoice")
		return
	}
	respondJSON(w, http.StatusCreated, invoice)
}

// @Summary Mark an invoice paid
// @Tags Admin
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} domain.SalesInvoiceDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/invoices/{id}/paid [post]
func (h *OrderHandler) MarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.orderService.MarkInvoicePaid(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "mark invoice paid")
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}
