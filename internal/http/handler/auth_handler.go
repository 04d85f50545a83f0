package handler

import (
	"net/http"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register an account
// @Description Starts a customer or supplier signup and emails a six digit verification code. The account is created on verification.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.RegisterRequest true "Signup details"
// @Success 202 {object} domain.MessageResponse
// @Failure 400 {object} domain.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.Register(r.Context(), &req); err != nil {
		handleServiceError(w, h.logger, err, "register account")
		return
	}

	respondMessage(w, http.StatusAccepted, "Verification code sent to your email")
}

// Verify godoc
// @Summary Verify email
// @Description Confirms the signup code, creates the account and returns a token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.VerifyEmailRequest true "Email, role and code"
// @Success 201 {object} domain.AuthResponse
// @Failure 400 {object} domain.ErrorResponse
// @Router /auth/verify [post]
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.VerifyEmail(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "verify email")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// ResendCode godoc
// @Summary Resend verification code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.ResendCodeRequest true "Email and role"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.ErrorResponse
// @Router /auth/resend-code [post]
func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResendCode(r.Context(), &req); err != nil {
		handleServiceError(w, h.logger, err, "resend code")
		return
	}

	respondMessage(w, http.StatusOK, "Verification code sent to your email")
}

// Login godoc
// @Summary Log in
// @Description Returns a bearer token. When the email has several accounts the role must be given.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.AuthResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "log in")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// ForgotPassword godoc
// @Summary Request a password reset code
// @Description Always answers 200 so account existence is not revealed
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.ForgotPasswordRequest true "Email and optional role"
// @Success 200 {object} domain.MessageResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), &req); err != nil {
		handleServiceError(w, h.logger, err, "request password reset")
		return
	}

	respondMessage(w, http.StatusOK, "If an account exists, a reset code has been sent")
}

// ResetPassword godoc
// @Summary Reset password with a code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.ResetPasswordRequest true "Reset details"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		handleServiceError(w, h.logger, err, "reset password")
		return
	}

	respondMessage(w, http.StatusOK, "Password has been reset")
}

// Me godoc
// @Summary Get current authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "load current user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// ChangePassword godoc
// @Summary Change password
// @Description Users with a temporary password may omit the current password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.ChangePasswordRequest true "Passwords"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), &req); err != nil {
		handleServiceError(w, h.logger, err, "change password")
		return
	}

	respondMessage(w, http.StatusOK, "Password updated")
}
