package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"go.uber.org/zap"
)

// CompanyPeerLoader lists the users that belong to a company
type CompanyPeerLoader interface {
	ListUserIDsByCompany(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
}

// CompanyScopeMiddleware resolves which users' records the caller may see.
// Users in the same company share RFQs, quotes, orders and files.
type CompanyScopeMiddleware struct {
	peers  CompanyPeerLoader
	logger *zap.Logger
}

// NewCompanyScopeMiddleware creates a new company scope middleware
func NewCompanyScopeMiddleware(peers CompanyPeerLoader, logger *zap.Logger) *CompanyScopeMiddleware {
	return &CompanyScopeMiddleware{
		peers:  peers,
		logger: logger,
	}
}

// Scope puts an auth.OwnerScope in the request context.
// - Admins get no scope and see everything
// - Users without a company only see their own records
// - Company members see the records of every member of that company
func (m *CompanyScopeMiddleware) Scope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := auth.FromContext(r.Context())
		if !ok || userCtx.Role == domain.RoleAdmin {
			next.ServeHTTP(w, r)
			return
		}

		scope := &auth.OwnerScope{UserIDs: []uuid.UUID{userCtx.UserID}}
		if userCtx.CompanyID != nil {
			ids, err := m.peers.ListUserIDsByCompany(r.Context(), *userCtx.CompanyID)
			if err != nil {
				// Fall back to the caller alone rather than failing the request
				m.logger.Warn("failed to resolve company peers",
					zap.String("user_id", userCtx.UserID.String()),
					zap.String("company_id", userCtx.CompanyID.String()),
					zap.Error(err),
				)
			} else {
				scope.UserIDs = withCaller(ids, userCtx.UserID)
			}
		}

		ctx := auth.WithOwnerScope(r.Context(), scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withCaller(ids []uuid.UUID, caller uuid.UUID) []uuid.UUID {
	for _, id := range ids {
		if id == caller {
			return ids
		}
	}
	return append(ids, caller)
}
