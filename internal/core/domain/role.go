package domain

import (
	"errors"
	"fmt"
	"time"
)

// Role is the closed set of per-tenant roles. Access decisions compare
// ranks in the fixed ordering viewer < developer < operator < tenant_admin
// < super_admin; an unknown role never passes a check.
type Role string

const (
	RoleViewer      Role = "viewer"
	RoleDeveloper   Role = "developer"
	RoleOperator    Role = "operator"
	RoleTenantAdmin Role = "tenant_admin"
	RoleSuperAdmin  Role = "super_admin"
)

var ErrRoleNotFound = errors.New("role not assigned")
var ErrForbidden = errors.New("access forbidden")
var ErrUnknownRole = errors.New("unknown role")

var roleRanks = map[Role]int{
	RoleViewer:      1,
	RoleDeveloper:   2,
	RoleOperator:    3,
	RoleTenantAdmin: 4,
	RoleSuperAdmin:  5,
}

// ParseRole validates an externally supplied role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// AtLeast reports whether r ranks at or above required. Either side being
// outside the closed set fails the check rather than passing it.
func (r Role) AtLeast(required Role) bool {
	have, ok := roleRanks[r]
	if !ok {
		return false
	}
	want, ok := roleRanks[required]
	if !ok {
		return false
	}
	return have >= want
}

// RoleAssignment is one row per (user, tenant) pair. The pair is unique:
// re-assigning replaces the role rather than adding a second row, so role
// changes are idempotent set operations.
type RoleAssignment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
