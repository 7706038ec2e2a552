package ports

import "context"

// TenantSecretRepository stores per-tenant webhook signing secrets. Values
// are opaque ciphertext here; encryption and decryption happen above this
// layer so the key never reaches the database.
type TenantSecretRepository interface {
	GetCiphertext(ctx context.Context, tenantID string) ([]byte, error)
	UpsertCiphertext(ctx context.Context, tenantID string, ciphertext []byte) error
}

// SecretSource resolves the current plaintext webhook secret for a tenant.
// Secret may serve from a short-lived cache; Refresh bypasses the cache so
// a verifier can retry against the latest secret during a rotation window.
type SecretSource interface {
	Secret(ctx context.Context, tenantID string) ([]byte, error)
	Refresh(ctx context.Context, tenantID string) ([]byte, error)
}
