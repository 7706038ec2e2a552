package ports

import (
	"context"

	"github.com/opsgate/identity/internal/core/domain"
)

// RoleService resolves and manages per-tenant roles. Lookups are always
// fresh reads so a revocation takes effect on the next request; results
// are never cached in a session token.
type RoleService interface {
	GetRole(ctx context.Context, userID, tenantID string) (domain.Role, error)
	AssignRole(ctx context.Context, userID, tenantID string, role domain.Role) (*domain.RoleAssignment, error)
	RevokeRole(ctx context.Context, userID, tenantID string) (bool, error)
	ListRoles(ctx context.Context, userID string) ([]domain.RoleAssignment, error)

	// Authorize fails closed: no assignment or insufficient rank is
	// domain.ErrForbidden.
	Authorize(ctx context.Context, userID, tenantID string, required domain.Role) error
}
