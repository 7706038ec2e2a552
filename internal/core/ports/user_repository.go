package ports

import (
	"context"
	"time"

	"github.com/opsgate/identity/internal/core/domain"
)

// UserRepository defines persistence for user identity and lockout state.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// RecordFailedAttempt increments the failure counter in a single atomic
	// statement and sets locked_until to lockUntil when the incremented
	// count reaches threshold. Two concurrent calls must not lose an
	// increment. Returns the updated user.
	RecordFailedAttempt(ctx context.Context, userID string, threshold int, lockUntil time.Time) (*domain.User, error)

	// ResetLoginState zeroes the failure counter and clears the lock.
	ResetLoginState(ctx context.Context, userID string) error

	// UpdatePassword replaces the stored hash, history list, and expiry in
	// one write.
	UpdatePassword(ctx context.Context, userID, passwordHash string, history []string, expiresAt time.Time) error

	// Delete removes the user. Role assignments cascade; audit rows keep
	// their data with user_id set to null (enforced by the schema).
	Delete(ctx context.Context, userID string) error
}
