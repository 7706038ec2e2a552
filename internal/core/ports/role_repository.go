package ports

import (
	"context"

	"github.com/opsgate/identity/internal/core/domain"
)

// RoleRepository defines persistence for per-tenant role assignments.
type RoleRepository interface {
	// Get is a point lookup on the unique (user, tenant) pair.
	Get(ctx context.Context, userID, tenantID string) (*domain.RoleAssignment, error)

	// Upsert sets the role for (user, tenant), replacing any existing
	// assignment so the pair stays unique.
	Upsert(ctx context.Context, userID, tenantID string, role domain.Role) (*domain.RoleAssignment, error)

	// Delete revokes the assignment; reports whether a row existed.
	Delete(ctx context.Context, userID, tenantID string) (bool, error)

	ListByUser(ctx context.Context, userID string) ([]domain.RoleAssignment, error)
}
