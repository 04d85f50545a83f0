package handler

import (
	"net/http"
	"strconv"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

// NotificationHandler handles HTTP requests for notifications
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// List godoc
// @Summary List notifications
// @Description Get the current user's notifications, newest first
// @Tags Notifications
// @Produce json
// @Param unreadOnly query bool false "Only unread notifications" default(false)
// @Param limit query int false "Maximum number of notifications (max 200)" default(50)
// @Success 200 {array} domain.NotificationDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.notificationService.ListForCurrentUser(r.Context(), unreadOnly, limit)
	if err != nil {
		handleServiceError(w, h.logger, err, "list notifications")
		return
	}

	respondJSON(w, http.StatusOK, notifications)
}

// GetUnreadCount godoc
// @Summary Get unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.UnreadCountDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.GetUnreadCount(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "count notifications")
		return
	}

	respondJSON(w, http.StatusOK, domain.UnreadCountDTO{Count: count})
}

// MarkAsRead godoc
// @Summary Mark notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} domain.MessageResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "mark notification as read")
		return
	}

	respondMessage(w, http.StatusOK, "Notification marked as read")
}

// MarkAllAsRead godoc
// @Summary Mark all notifications as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.MessageResponse
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.MarkAllAsRead(r.Context()); err != nil {
		handleServiceError(w, h.logger, err, "mark notifications as read")
		return
	}

	respondMessage(w, http.StatusOK, "All notifications marked as read")
}

// Delete godoc
// @Summary Delete notification
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete notification")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
