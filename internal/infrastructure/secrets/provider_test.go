package secrets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/infrastructure/crypto"
)

type stubSecretRepo struct {
	blobs map[string][]byte
	reads int
}

func (s *stubSecretRepo) GetCiphertext(_ context.Context, tenantID string) ([]byte, error) {
	s.reads++
	blob, ok := s.blobs[tenantID]
	if !ok {
		return nil, domain.ErrUnknownTenant
	}
	return blob, nil
}

func (s *stubSecretRepo) UpsertCiphertext(_ context.Context, tenantID string, ciphertext []byte) error {
	s.blobs[tenantID] = ciphertext
	return nil
}

func providerFixture(t *testing.T) (*CachingProvider, *stubSecretRepo, *crypto.Box) {
	t.Helper()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x41}, 32))
	box, err := crypto.NewBox(key)
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}
	repo := &stubSecretRepo{blobs: map[string][]byte{}}
	return NewCachingProvider(repo, box, DefaultCacheTTL, zerolog.Nop()), repo, box
}

func seal(t *testing.T, box *crypto.Box, secret []byte) []byte {
	t.Helper()
	blob, err := box.Seal(secret)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	return blob
}

func TestCachingProvider_ServesFromCache(t *testing.T) {
	p, repo, box := providerFixture(t)
	repo.blobs["acme-co"] = seal(t, box, []byte("whsec_one"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		secret, err := p.Secret(ctx, "acme-co")
		if err != nil {
			t.Fatalf("Secret: %v", err)
		}
		if string(secret) != "whsec_one" {
			t.Fatalf("unexpected secret %q", secret)
		}
	}
	if repo.reads != 1 {
		t.Fatalf("expected a single storage read, got %d", repo.reads)
	}
}

func TestCachingProvider_CacheExpires(t *testing.T) {
	p, repo, box := providerFixture(t)
	repo.blobs["acme-co"] = seal(t, box, []byte("whsec_one"))
	ctx := context.Background()

	base := time.Now()
	p.now = func() time.Time { return base }
	if _, err := p.Secret(ctx, "acme-co"); err != nil {
		t.Fatalf("Secret: %v", err)
	}

	repo.blobs["acme-co"] = seal(t, box, []byte("whsec_two"))
	p.now = func() time.Time { return base.Add(DefaultCacheTTL + time.Second) }

	secret, err := p.Secret(ctx, "acme-co")
	if err != nil {
		t.Fatalf("Secret after expiry: %v", err)
	}
	if string(secret) != "whsec_two" {
		t.Fatalf("expected refreshed secret, got %q", secret)
	}
	if repo.reads != 2 {
		t.Fatalf("expected two storage reads, got %d", repo.reads)
	}
}

func TestCachingProvider_RefreshBypassesCache(t *testing.T) {
	p, repo, box := providerFixture(t)
	repo.blobs["acme-co"] = seal(t, box, []byte("whsec_one"))
	ctx := context.Background()

	if _, err := p.Secret(ctx, "acme-co"); err != nil {
		t.Fatalf("Secret: %v", err)
	}

	repo.blobs["acme-co"] = seal(t, box, []byte("whsec_two"))
	secret, err := p.Refresh(ctx, "acme-co")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if string(secret) != "whsec_two" {
		t.Fatalf("Refresh served stale secret %q", secret)
	}

	// Subsequent cached reads see the refreshed value.
	secret, err = p.Secret(ctx, "acme-co")
	if err != nil {
		t.Fatalf("Secret after refresh: %v", err)
	}
	if string(secret) != "whsec_two" {
		t.Fatalf("cache not updated by Refresh, got %q", secret)
	}
}

func TestCachingProvider_UnknownTenant(t *testing.T) {
	p, _, _ := providerFixture(t)
	if _, err := p.Secret(context.Background(), "ghost-co"); !errors.Is(err, domain.ErrUnknownTenant) {
		t.Fatalf("expected ErrUnknownTenant, got %v", err)
	}
}

func TestCachingProvider_SetSecretRoundTrips(t *testing.T) {
	p, repo, box := providerFixture(t)
	ctx := context.Background()

	if err := p.SetSecret(ctx, "acme-co", []byte("whsec_new")); err != nil {
		t.Fatalf("SetSecret: %v", err)
	}

	plaintext, err := box.Open(repo.blobs["acme-co"])
	if err != nil {
		t.Fatalf("stored blob not decryptable: %v", err)
	}
	if string(plaintext) != "whsec_new" {
		t.Fatalf("stored secret mismatch: %q", plaintext)
	}

	secret, err := p.Secret(ctx, "acme-co")
	if err != nil {
		t.Fatalf("Secret: %v", err)
	}
	if string(secret) != "whsec_new" {
		t.Fatalf("cached secret mismatch: %q", secret)
	}
	if repo.reads != 0 {
		t.Fatalf("SetSecret should prime the cache, saw %d reads", repo.reads)
	}
}
