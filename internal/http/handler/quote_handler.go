package handler

import (
	"net/http"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

// QuoteHandler serves sales quotes for customers and admins
type QuoteHandler struct {
	quoteService   *service.SalesQuoteService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewQuoteHandler(quoteService *service.SalesQuoteService, maxUploadBytes int64, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService:   quoteService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// List godoc
// @Summary List quotes for the caller's company
// @Tags Quotes
// @Produce json
// @Success 200 {array} domain.SalesQuoteDTO
// @Security BearerAuth
// @Router /quotes [get]
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quoteService.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list quotes")
		return
	}
	respondJSON(w, http.StatusOK, quotes)
}

// GetByID godoc
// @Summary Get a quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.SalesQuoteDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes/{id} [get]
func (h *QuoteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote")
	if !ok {
		return
	}

	quote, err := h.quoteService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get quote")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Respond godoc
// @Summary Accept or decline a quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.RespondQuoteRequest true "accept or decline"
// @Success 200 {object} domain.SalesQuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes/{id}/respond [post]
func (h *QuoteHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	var req domain.RespondQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quote, err := h.quoteService.Respond(r.Context(), id, req.Action)
	if err != nil {
		handleServiceError(w, h.logger, err, "respond to quote")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// UploadPurchaseOrder godoc
// @Summary Upload the customer purchase order for an accepted quote
// @Tags Quotes
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Quote ID"
// @Param file formData file true "Purchase order document"
// @Param poNumber formData string false "Customer PO number"
// @Success 200 {object} domain.SalesQuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 413 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes/{id}/purchase-order [post]
func (h *QuoteHandler) UploadPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	up, file, ok := readUpload(w, r, "file", h.maxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	quote, err := h.quoteService.UploadPurchaseOrder(r.Context(), id, r.FormValue("poNumber"), up)
	if err != nil {
		handleServiceError(w, h.logger, err, "upload purchase order")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// DownloadFile godoc
// @Summary Download the quote document
// @Tags Quotes
// @Produce application/octet-stream
// @Param id path string true "Quote ID"
// @Success 200
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes/{id}/file [get]
func (h *QuoteHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote")
	if !ok {
		return
	}

	d, err := h.quoteService.DownloadQuoteFile(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "download quote")
		return
	}
	serveDownload(w, h.logger, d)
}

// @Summary Create the sales quote for an RFQ
// @Description Numbers the quote SQTE-YYNNN, marks the RFQ quoted and emails the customer
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "RFQ ID"
// @Param request body domain.CreateSalesQuoteRequest true "Quote"
// @Success 201 {object} domain.SalesQuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/rfqs/{id}/quote [post]
func (h *QuoteHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	rfqID, ok := parseUUIDParam(w, r, "id", "RFQ")
	if !ok {
		return
	}
	var req domain.CreateSalesQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quote, err := h.quoteService.AdminCreate(r.Context(), rfqID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create quote")
		return
	}
	respondJSON(w, http.StatusCreated, quote)
}

// @Summary Attach the quote document
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Quote ID"
// @Param file formData file true "Quote document"
// @Success 200 {object} domain.SalesQuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 413 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/quotes/{id}/file [post]
func (h *QuoteHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	up, file, ok := readUpload(w, r, "file", h.maxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	quote, err := h.quoteService.UploadQuoteFile(r.Context(), id, up)
	if err != nil {
		handleServiceError(w, h.logger, err, "upload quote file")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// @Summary Download the customer purchase order
// @Tags Admin
// @Produce application/octet-stream
// @Param id path string true "Quote ID"
// @Success 200
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/quotes/{id}/purchase-order [get]
func (h *QuoteHandler) DownloadPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote")
	if !ok {
		return
	}

	d, err := h.quoteService.DownloadPurchaseOrder(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "download purchase order")
		return
	}
	serveDownload(w, h.logger, d)
}
