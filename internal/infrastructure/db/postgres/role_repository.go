package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/ids"
)

// RoleRepository persists per-tenant role assignments. The unique
// (user_id, tenant_id) constraint keeps one row per pair; upserts ride on
// it with ON CONFLICT.
type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Get(ctx context.Context, userID, tenantID string) (*domain.RoleAssignment, error) {
	row := r.db.QueryRowContext(ctx,
		`select id, user_id, tenant_id, role, created_at, updated_at
		 from user_tenant_roles
		 where user_id = $1 and tenant_id = $2`,
		userID, tenantID)
	return scanAssignment(row)
}

func (r *RoleRepository) Upsert(ctx context.Context, userID, tenantID string, role domain.Role) (*domain.RoleAssignment, error) {
	row := r.db.QueryRowContext(ctx,
		`insert into user_tenant_roles (id, user_id, tenant_id, role, created_at, updated_at)
		 values ($1, $2, $3, $4, now(), now())
		 on conflict (user_id, tenant_id) do update set role = excluded.role, updated_at = now()
		 returning id, user_id, tenant_id, role, created_at, updated_at`,
		ids.New(), userID, tenantID, string(role))
	assignment, err := scanAssignment(row)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return assignment, nil
}

func (r *RoleRepository) Delete(ctx context.Context, userID, tenantID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`delete from user_tenant_roles where user_id = $1 and tenant_id = $2`,
		userID, tenantID)
	if err != nil {
		return false, fmt.Errorf("delete role assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RoleRepository) ListByUser(ctx context.Context, userID string) ([]domain.RoleAssignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id, user_id, tenant_id, role, created_at, updated_at
		 from user_tenant_roles
		 where user_id = $1
		 order by tenant_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.RoleAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAssignment(row rowScanner) (*domain.RoleAssignment, error) {
	var (
		a    domain.RoleAssignment
		role string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.TenantID, &role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, err
	}
	a.Role = domain.Role(role)
	return &a, nil
}
