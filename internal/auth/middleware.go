package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/logger"
	"go.uber.org/zap"
)

// UserLoader loads the account behind a validated token
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	tokens *TokenManager
	users  UserLoader
	logger *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(tokens *TokenManager, users UserLoader, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// Authenticate validates the bearer token and loads the user row.
// A token whose user no longer exists is rejected.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid authorization header format")
			return
		}

		userCtx, err := m.Resolve(r.Context(), parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
			return
		}

		logger.WithUser(m.logger, userCtx.UserID, userCtx.Role).Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("auth_duration", time.Since(start)),
		)

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Resolve validates a raw token and builds the user context from the stored account
func (m *Middleware) Resolve(ctx context.Context, token string) (*UserContext, error) {
	claims, err := m.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, err
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &UserContext{
		UserID:            user.ID,
		Name:              user.Name,
		Email:             user.Email,
		Role:              user.Role,
		CompanyID:         user.CompanyID,
		MustResetPassword: user.MustResetPassword,
	}, nil
}

// RequireRole middleware ensures user has one of the given roles
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusForbidden, "Forbidden", "No user context")
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				writeError(w, http.StatusForbidden, "Forbidden", "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin middleware ensures user is an administrator
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(domain.RoleAdmin)(next)
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{Error: title, Message: message})
}
