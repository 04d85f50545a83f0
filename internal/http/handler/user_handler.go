package handler

import (
	"net/http"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

// UserHandler serves the admin user management endpoints
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// @Summary List users
// @Tags Admin
// @Produce json
// @Param role query string false "Role filter" Enums(customer, supplier, admin)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.UserDTO}
// @Security BearerAuth
// @Router /admin/users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	role := domain.UserRole(r.URL.Query().Get("role"))
	if role != "" && !role.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Invalid role: must be customer, supplier or admin")
		return
	}
	page, pageSize := parsePagination(r)

	result, err := h.userService.List(r.Context(), role, page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "list users")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create user
// @Description Creates a verified account with a temporary password that must be changed at first login
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User"
// @Success 201 {object} domain.UserDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create user")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// @Summary Delete user
// @Tags Admin
// @Param id path string true "User ID"
// @Success 204
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "user")
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Link or unlink a user's company
// @Description A null companyId removes the link
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.SetUserCompanyRequest true "Company"
// @Success 200 {object} domain.UserDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/company [patch]
func (h *UserHandler) SetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "user")
	if !ok {
		return
	}
	var req domain.SetUserCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.SetCompany(r.Context(), id, req.CompanyID)
	if err != nil {
		handleServiceError(w, h.logger, err, "update user company")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
