package ports

import (
	"context"

	"github.com/opsgate/identity/internal/core/domain"
)

// RequestMeta carries client metadata attached to audit rows.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// LoginInput is one login attempt.
type LoginInput struct {
	Email    string
	Password string
	TenantID string
	Meta     RequestMeta
}

// AccountService owns user credentials: registration, password change, and
// deletion. Lockout counters are managed internally by the login flow.
type AccountService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, newPassword string, meta RequestMeta) error
	Delete(ctx context.Context, userID string) error
}

// LoginService decides a single login attempt end to end.
type LoginService interface {
	Login(ctx context.Context, in LoginInput) (*domain.Principal, error)
}
