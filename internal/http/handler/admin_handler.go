package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves admin reporting: spreadsheet exports and the
// document number sequences
type AdminHandler struct {
	exportService    *service.ExportService
	numberingService *service.NumberingService
	logger           *zap.Logger
}

func NewAdminHandler(exportService *service.ExportService, numberingService *service.NumberingService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		exportService:    exportService,
		numberingService: numberingService,
		logger:           logger,
	}
}

// @Summary Export a spreadsheet
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind path string true "Export kind" Enums(orders, rfqs, purchase-orders)
// @Success 200
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/export/{kind} [get]
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind := service.ExportKind(chi.URLParam(r, "kind"))

	// Buffer the workbook so a failure can still produce a JSON error
	var buf bytes.Buffer
	rows, err := h.exportService.Write(r.Context(), kind, &buf)
	if err != nil {
		handleServiceError(w, h.logger, err, "export "+string(kind))
		return
	}

	h.logger.Info("export generated", zap.String("kind", string(kind)), zap.Int("rows", rows))

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind.FileName(time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// @Summary List document number sequences
// @Tags Admin
// @Produce json
// @Success 200 {array} domain.NumberSequenceDTO
// @Security BearerAuth
// @Router /admin/sequences [get]
func (h *AdminHandler) Sequences(w http.ResponseWriter, r *http.Request) {
	seqs, err := h.numberingService.ListSequences(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list sequences")
		return
	}
	respondJSON(w, http.StatusOK, seqs)
}
