package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opsgate/identity/internal/core/domain"
)

// TenantSecretRepository stores webhook signing secrets as ciphertext. The
// encryption key never reaches this layer.
type TenantSecretRepository struct {
	db *sql.DB
}

func NewTenantSecretRepository(db *sql.DB) *TenantSecretRepository {
	return &TenantSecretRepository{db: db}
}

func (r *TenantSecretRepository) GetCiphertext(ctx context.Context, tenantID string) ([]byte, error) {
	var ciphertext []byte
	err := r.db.QueryRowContext(ctx,
		`select secret_ciphertext from tenant_webhook_secrets where tenant_id = $1`,
		tenantID).Scan(&ciphertext)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUnknownTenant
		}
		return nil, fmt.Errorf("get tenant secret: %w", err)
	}
	return ciphertext, nil
}

func (r *TenantSecretRepository) UpsertCiphertext(ctx context.Context, tenantID string, ciphertext []byte) error {
	_, err := r.db.ExecContext(ctx,
		`insert into tenant_webhook_secrets (tenant_id, secret_ciphertext, rotated_at)
		 values ($1, $2, now())
		 on conflict (tenant_id) do update set secret_ciphertext = excluded.secret_ciphertext, rotated_at = now()`,
		tenantID, ciphertext)
	if err != nil {
		return fmt.Errorf("upsert tenant secret: %w", err)
	}
	return nil
}
