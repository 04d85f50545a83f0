package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID            uuid.UUID
	Name              string
	Email             string
	Role              domain.UserRole
	CompanyID         *uuid.UUID
	MustResetPassword bool
}

type contextKey string

const userContextKey contextKey = "userContext"
const ownerScopeKey contextKey = "ownerScope"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRole) bool {
	return u.Role == role
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is a portal administrator
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// OwnerScope lists the users whose records the caller may see: the caller
// plus every user sharing the caller's company.
type OwnerScope struct {
	UserIDs []uuid.UUID
}

// Contains reports whether id is inside the scope
func (s *OwnerScope) Contains(id uuid.UUID) bool {
	for _, uid := range s.UserIDs {
		if uid == id {
			return true
		}
	}
	return false
}

// WithOwnerScope adds the owner scope to the context
func WithOwnerScope(ctx context.Context, scope *OwnerScope) context.Context {
	return context.WithValue(ctx, ownerScopeKey, scope)
}

// OwnerScopeFromContext extracts the owner scope from the context
func OwnerScopeFromContext(ctx context.Context) (*OwnerScope, bool) {
	scope, ok := ctx.Value(ownerScopeKey).(*OwnerScope)
	return scope, ok
}

// GetEffectiveOwnerIDs returns the user IDs queries must be filtered by.
// Returns nil when no filtering applies (admins, or no user in context).
func GetEffectiveOwnerIDs(ctx context.Context) []uuid.UUID {
	userCtx, ok := FromContext(ctx)
	if !ok || userCtx.IsAdmin() {
		return nil
	}
	if scope, ok := OwnerScopeFromContext(ctx); ok && scope != nil && len(scope.UserIDs) > 0 {
		return scope.UserIDs
	}
	return []uuid.UUID{userCtx.UserID}
}

// CanAccessOwner checks if the caller may see a record owned by ownerID
func CanAccessOwner(ctx context.Context, ownerID uuid.UUID) bool {
	ids := GetEffectiveOwnerIDs(ctx)
	if ids == nil {
		_, ok := FromContext(ctx)
		return ok
	}
	for _, id := range ids {
		if id == ownerID {
			return true
		}
	}
	return false
}
