// Package secrets resolves per-tenant webhook signing secrets from
// encrypted storage with a short in-memory cache in front.
package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsgate/identity/internal/core/ports"
	"github.com/opsgate/identity/internal/infrastructure/crypto"
)

// DefaultCacheTTL bounds how long a rotated-away secret can keep
// verifying signatures before the fallback path kicks in.
const DefaultCacheTTL = 2 * time.Minute

type cachedSecret struct {
	value     []byte
	fetchedAt time.Time
}

// CachingProvider implements ports.SecretSource over a
// TenantSecretRepository, decrypting ciphertexts on the way out.
type CachingProvider struct {
	repo ports.TenantSecretRepository
	box  *crypto.Box
	ttl  time.Duration
	log  zerolog.Logger
	now  func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

func NewCachingProvider(repo ports.TenantSecretRepository, box *crypto.Box, ttl time.Duration, log zerolog.Logger) *CachingProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingProvider{
		repo:  repo,
		box:   box,
		ttl:   ttl,
		log:   log,
		now:   time.Now,
		cache: make(map[string]cachedSecret),
	}
}

// Secret returns the tenant's signing secret, served from cache when the
// entry is still fresh.
func (p *CachingProvider) Secret(ctx context.Context, tenantID string) ([]byte, error) {
	p.mu.RLock()
	entry, ok := p.cache[tenantID]
	p.mu.RUnlock()
	if ok && p.now().Sub(entry.fetchedAt) < p.ttl {
		return entry.value, nil
	}
	return p.Refresh(ctx, tenantID)
}

// Refresh bypasses the cache and reloads the secret from storage. Callers
// use it when a signature fails against the cached value, so a rotation
// that happened inside the cache window is still honored.
func (p *CachingProvider) Refresh(ctx context.Context, tenantID string) ([]byte, error) {
	ciphertext, err := p.repo.GetCiphertext(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	secret, err := p.box.Open(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting secret for tenant %s: %w", tenantID, err)
	}

	p.mu.Lock()
	p.cache[tenantID] = cachedSecret{value: secret, fetchedAt: p.now()}
	p.mu.Unlock()
	return secret, nil
}

// SetSecret encrypts and stores a new signing secret for the tenant,
// replacing any cached value immediately.
func (p *CachingProvider) SetSecret(ctx context.Context, tenantID string, secret []byte) error {
	ciphertext, err := p.box.Seal(secret)
	if err != nil {
		return fmt.Errorf("encrypting secret for tenant %s: %w", tenantID, err)
	}
	if err := p.repo.UpsertCiphertext(ctx, tenantID, ciphertext); err != nil {
		return err
	}

	p.mu.Lock()
	p.cache[tenantID] = cachedSecret{value: secret, fetchedAt: p.now()}
	p.mu.Unlock()

	p.log.Info().Str("tenant_id", tenantID).Msg("webhook secret rotated")
	return nil
}
