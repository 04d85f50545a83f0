package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondMessage acknowledges an action that has no resource to return
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.MessageResponse{Message: message})
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}

	message := "One or more fields failed validation"
	if len(ve) == 1 {
		message = capitalize(formatValidationError(ve[0]))
	}

	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:    domain.ErrorTypeValidation,
		Title:   "Validation Error",
		Status:  http.StatusBadRequest,
		Message: message,
		Errors:  fields,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("Must contain at least %s entries", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// errorStatuses maps service sentinels to HTTP status codes. The first
// match wins, so specific sentinels come before the generic ones.
var errorStatuses = []struct {
	err    error
	status int
}{
	// 400
	{service.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrInvalidFileLink, http.StatusBadRequest},
	{service.ErrDuplicateAccount, http.StatusBadRequest},
	{service.ErrRoleRequired, http.StatusBadRequest},
	{service.ErrInvalidCode, http.StatusBadRequest},
	{service.ErrRegistrationMissing, http.StatusBadRequest},
	{service.ErrCannotDeleteSelf, http.StatusBadRequest},
	{service.ErrInvalidCompanyNumber, http.StatusBadRequest},
	{service.ErrMergeIncludesPrimary, http.StatusBadRequest},
	{service.ErrCompanyTypeMismatch, http.StatusBadRequest},
	{service.ErrUserCompanyTypeMismatch, http.StatusBadRequest},
	{service.ErrQuoteNotPending, http.StatusBadRequest},
	{service.ErrQuoteNotAccepted, http.StatusBadRequest},
	{service.ErrRfqNotAccepted, http.StatusBadRequest},
	{service.ErrNoQuoteForRfq, http.StatusBadRequest},
	{service.ErrRfqClosed, http.StatusBadRequest},
	{service.ErrOrderExists, http.StatusBadRequest},
	{service.ErrShipmentExceedsRemaining, http.StatusBadRequest},
	{service.ErrInvalidStatus, http.StatusBadRequest},
	{service.ErrAssignmentExpired, http.StatusBadRequest},
	{service.ErrNotSupplier, http.StatusBadRequest},
	{service.ErrSupplierQuoteNotAccepted, http.StatusBadRequest},
	{service.ErrPurchaseOrderExists, http.StatusBadRequest},
	{service.ErrPurchaseOrderNotPending, http.StatusBadRequest},
	{service.ErrPurchaseOrderNotActive, http.StatusBadRequest},
	{service.ErrPurchaseOrderNotDelivery, http.StatusBadRequest},
	{service.ErrFileTypeNotAllowed, http.StatusBadRequest},
	{service.ErrNoAdminAvailable, http.StatusBadRequest},

	// 401
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrUserContextRequired, http.StatusUnauthorized},

	// 403
	{service.ErrPermissionDenied, http.StatusForbidden},
	{service.ErrAccountNotVerified, http.StatusForbidden},
	{service.ErrNotAssigned, http.StatusForbidden},
	{service.ErrNotParticipant, http.StatusForbidden},
	{service.ErrRecipientNotAllowed, http.StatusForbidden},

	// 404
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrCompanyNotFound, http.StatusNotFound},
	{service.ErrRfqNotFound, http.StatusNotFound},
	{service.ErrQuoteNotFound, http.StatusNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrShipmentNotFound, http.StatusNotFound},
	{service.ErrInvoiceNotFound, http.StatusNotFound},
	{service.ErrSupplierQuoteNotFound, http.StatusNotFound},
	{service.ErrPurchaseOrderNotFound, http.StatusNotFound},
	{service.ErrFileNotFound, http.StatusNotFound},
	{service.ErrThreadNotFound, http.StatusNotFound},
	{service.ErrMessageNotFound, http.StatusNotFound},
	{service.ErrNotificationNotFound, http.StatusNotFound},

	// 409
	{service.ErrConflict, http.StatusConflict},
	{service.ErrCompanyNumberTaken, http.StatusConflict},
	{service.ErrUserHasRecords, http.StatusConflict},

	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{service.ErrEmailUnavailable, http.StatusServiceUnavailable},
}

// statusForError returns the HTTP status for a service error, or 500
func statusForError(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// handleServiceError maps a service error to a response. Unknown errors are
// logged and answered with a generic 500.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error("failed to "+action, zap.Error(err))
		respondWithError(w, status, "Failed to "+action)
		return
	}
	respondWithError(w, status, capitalize(err.Error()))
}

// decodeJSON reads and validates a JSON request body into dst.
// It writes the error response itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// parseUUIDParam parses a chi URL parameter as a UUID.
// It writes a 400 and returns false when the value is malformed.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID: must be a valid UUID", label))
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads page and pageSize, clamped by repository.NormalizePage
func parsePagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	return repository.NormalizePage(page, pageSize)
}

// parseSort reads sortBy and sortOrder, defaulting to newest first
func parseSort(r *http.Request) repository.SortConfig {
	sort := repository.DefaultSortConfig()
	if field := r.URL.Query().Get("sortBy"); field != "" {
		sort.Field = field
	}
	sort.Order = repository.ParseSortOrder(r.URL.Query().Get("sortOrder"))
	return sort
}
