package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsgate/identity/internal/core/domain"
)

// guardTTL keeps seen-delivery keys slightly longer than the freshness
// window: once the timestamp check would reject a replay anyway, the key is
// free to expire.
const guardTTL = domain.MaxWebhookAge + domain.MaxClockSkew + time.Minute

// ReplayGuard refuses re-delivery of an already-verified webhook within the
// freshness window, backed by Redis.
// Key format: webhook:seen:<tenant_id>:<signature>
type ReplayGuard struct {
	client *redis.Client
}

// NewReplayGuard creates a ReplayGuard wrapping the given Redis client.
func NewReplayGuard(client *redis.Client) *ReplayGuard {
	return &ReplayGuard{client: client}
}

// Seen reports whether this exact signed delivery was already accepted.
func (g *ReplayGuard) Seen(ctx context.Context, tenantID, signature string) (bool, error) {
	n, err := g.client.Exists(ctx, g.key(tenantID, signature)).Result()
	if err != nil {
		return false, fmt.Errorf("replay check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this delivery has been accepted (expires after guardTTL).
func (g *ReplayGuard) Mark(ctx context.Context, tenantID, signature string) error {
	return g.client.Set(ctx, g.key(tenantID, signature), "1", guardTTL).Err()
}

func (g *ReplayGuard) key(tenantID, signature string) string {
	return fmt.Sprintf("webhook:seen:%s:%s", tenantID, signature)
}
