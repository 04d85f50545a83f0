package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

// MessageHandler serves direct messaging between users and administrators
type MessageHandler struct {
	messageService *service.MessageService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewMessageHandler(messageService *service.MessageService, maxUploadBytes int64, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ListThreads godoc
// @Summary List the caller's message threads
// @Tags Messages
// @Produce json
// @Success 200 {array} domain.ThreadSummaryDTO
// @Security BearerAuth
// @Router /messages/threads [get]
func (h *MessageHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.messageService.ListThreads(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list threads")
		return
	}
	respondJSON(w, http.StatusOK, threads)
}

// GetThread godoc
// @Summary Get a thread
// @Description Returns every message oldest first and marks the caller's received messages read
// @Tags Messages
// @Produce json
// @Param threadId path string true "Thread ID"
// @Success 200 {array} domain.MessageDTO
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /messages/threads/{threadId} [get]
func (h *MessageHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messageService.GetThread(r.Context(), chi.URLParam(r, "threadId"))
	if err != nil {
		handleServiceError(w, h.logger, err, "get thread")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// Send godoc
// @Summary Send a message
// @Description Non-admins always write to an administrator. The thread for the pair and category is reused.
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body domain.SendMessageRequest true "Message"
// @Success 201 {object} domain.MessageDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /messages [post]
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.messageService.Send(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "send message")
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// Reply godoc
// @Summary Reply in a thread
// @Tags Messages
// @Accept json
// @Produce json
// @Param threadId path string true "Thread ID"
// @Param request body domain.ReplyMessageRequest true "Reply"
// @Success 201 {object} domain.MessageDTO
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /messages/threads/{threadId}/reply [post]
func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req domain.ReplyMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.messageService.Reply(r.Context(), chi.URLParam(r, "threadId"), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "reply")
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// UnreadCount godoc
// @Summary Count unread messages
// @Tags Messages
// @Produce json
// @Success 200 {object} domain.UnreadCountDTO
// @Security BearerAuth
// @Router /messages/unread-count [get]
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.messageService.UnreadCount(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "count messages")
		return
	}
	respondJSON(w, http.StatusOK, domain.UnreadCountDTO{Count: count})
}

// AddAttachment godoc
// @Summary Attach a file to a message
// @Description Only the sender may attach files
// @Tags Messages
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Message ID"
// @Param file formData file true "Attachment"
// @Success 201 {object} domain.MessageAttachmentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 413 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /messages/{id}/attachments [post]
func (h *MessageHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "message")
	if !ok {
		return
	}
	up, file, ok := readUpload(w, r, "file", h.maxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	attachment, err := h.messageService.AddAttachment(r.Context(), id, up)
	if err != nil {
		handleServiceError(w, h.logger, err, "add attachment")
		return
	}
	respondJSON(w, http.StatusCreated, attachment)
}

// DownloadAttachment godoc
// @Summary Download a message attachment
// @Tags Messages
// @Produce application/octet-stream
// @Param id path string true "Attachment ID"
// @Success 200
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /messages/attachments/{id}/download [get]
func (h *MessageHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "attachment")
	if !ok {
		return
	}

	d, err := h.messageService.DownloadAttachment(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "download attachment")
		return
	}
	serveDownload(w, h.logger, d)
}
