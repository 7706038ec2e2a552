package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

// RoleService resolves per-tenant roles. Every lookup is a fresh read:
// roles are never cached across requests or embedded in tokens, so a
// revocation is effective on the very next authorization check.
type RoleService struct {
	roles ports.RoleRepository
	log   zerolog.Logger
}

func NewRoleService(roles ports.RoleRepository, log zerolog.Logger) *RoleService {
	return &RoleService{roles: roles, log: log}
}

// GetRole returns the role assigned to (user, tenant) or ErrRoleNotFound.
func (s *RoleService) GetRole(ctx context.Context, userID, tenantID string) (domain.Role, error) {
	assignment, err := s.roles.Get(ctx, userID, tenantID)
	if err != nil {
		return "", err
	}
	return assignment.Role, nil
}

// AssignRole sets the role for (user, tenant). Assigning over an existing
// row replaces it, keeping exactly one assignment per pair.
func (s *RoleService) AssignRole(ctx context.Context, userID, tenantID string, role domain.Role) (*domain.RoleAssignment, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}
	if !domain.ValidTenantID(tenantID) {
		return nil, domain.ErrInvalidTenantFormat
	}
	return s.roles.Upsert(ctx, userID, tenantID, role)
}

// RevokeRole deletes the assignment; reports whether one existed.
func (s *RoleService) RevokeRole(ctx context.Context, userID, tenantID string) (bool, error) {
	return s.roles.Delete(ctx, userID, tenantID)
}

// ListRoles returns all tenant assignments for a user.
func (s *RoleService) ListRoles(ctx context.Context, userID string) ([]domain.RoleAssignment, error) {
	return s.roles.ListByUser(ctx, userID)
}

// Authorize fails closed: a missing assignment or a role below the
// required rank is ErrForbidden, never a pass.
func (s *RoleService) Authorize(ctx context.Context, userID, tenantID string, required domain.Role) error {
	role, err := s.GetRole(ctx, userID, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return domain.ErrForbidden
		}
		return err
	}
	if !role.AtLeast(required) {
		return domain.ErrForbidden
	}
	return nil
}
