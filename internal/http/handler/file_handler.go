package handler

import (
	"net/http"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

type FileHandler struct {
	fileService    *service.FileService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewFileHandler(fileService *service.FileService, maxUploadBytes int64, logger *zap.Logger) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// @Summary Upload file
// @Description Links the file to an RFQ, an order, an order's quality check, or a supplier quote
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param linkedToType formData string true "Owner type" Enums(rfq, order, quality_check, supplier_quote)
// @Param linkedToId formData string true "Owner ID"
// @Success 201 {object} domain.FileDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 413 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /files [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	up, file, ok := readUpload(w, r, "file", h.maxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	link, err := domain.ParseFileLink(r.FormValue("linkedToType"), r.FormValue("linkedToId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid linkedToType or linkedToId")
		return
	}

	fileDTO, err := h.fileService.Upload(r.Context(), link, up)
	if err != nil {
		handleServiceError(w, h.logger, err, "upload file")
		return
	}

	respondJSON(w, http.StatusCreated, fileDTO)
}

// @Summary List files of an owner
// @Tags Files
// @Produce json
// @Param linkedToType query string true "Owner type" Enums(rfq, order, quality_check, supplier_quote)
// @Param linkedToId query string true "Owner ID"
// @Success 200 {array} domain.FileDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /files [get]
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	link, err := domain.ParseFileLink(r.URL.Query().Get("linkedToType"), r.URL.Query().Get("linkedToId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid linkedToType or linkedToId")
		return
	}

	files, err := h.fileService.ListByLink(r.Context(), link)
	if err != nil {
		handleServiceError(w, h.logger, err, "list files")
		return
	}

	respondJSON(w, http.StatusOK, files)
}

// @Summary Get file metadata
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} domain.FileDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /files/{id} [get]
func (h *FileHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "file")
	if !ok {
		return
	}

	fileDTO, err := h.fileService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get file")
		return
	}

	respondJSON(w, http.StatusOK, fileDTO)
}

// @Summary Download file
// @Tags Files
// @Produce application/octet-stream
// @Param id path string true "File ID"
// @Success 200
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /files/{id}/download [get]
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "file")
	if !ok {
		return
	}

	d, err := h.fileService.Download(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "download file")
		return
	}

	serveDownload(w, h.logger, d)
}

// @Summary Delete file
// @Tags Admin
// @Param id path string true "File ID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/files/{id} [delete]
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "file")
	if !ok {
		return
	}

	if err := h.fileService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete file")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
