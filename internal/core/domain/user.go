package domain

import (
	"errors"
	"time"
)

const (
	// MaxFailedLoginAttempts is the number of consecutive failures that
	// triggers an account lock.
	MaxFailedLoginAttempts = 5

	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 15 * time.Minute

	// PasswordMaxAge is the lifetime of a password before a change is forced.
	PasswordMaxAge = 90 * 24 * time.Hour

	// PasswordHistoryDepth is how many prior hashes are retained for the
	// reuse check. The oldest hash is evicted first.
	PasswordHistoryDepth = 5
)

var ErrEmailTaken = errors.New("email already registered")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAccountLocked = errors.New("account locked")
var ErrPasswordExpired = errors.New("password expired")
var ErrPasswordReused = errors.New("password was used recently")

// User is the identity record owned by the credential store.
//
// FailedLoginAttempts and LockedUntil are mutated on every login attempt;
// PasswordHistory and PasswordExpiresAt only on password change. Users are
// never hard-deleted by the login path.
type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	DefaultTenantID     string     `json:"default_tenant_id,omitempty"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	PasswordExpiresAt   *time.Time `json:"-"`
	PasswordHistory     []string   `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// LockedAt reports whether the account is locked at the given instant.
// Lock expiry is evaluated lazily here; there is no background sweep.
func (u *User) LockedAt(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// PasswordExpiredAt reports whether the password has outlived its expiry.
func (u *User) PasswordExpiredAt(now time.Time) bool {
	return u.PasswordExpiresAt != nil && now.After(*u.PasswordExpiresAt)
}

// Principal is the authenticated identity returned by a successful login.
// Role is resolved fresh for the requested tenant and is empty when the
// login did not name a tenant or the user holds no role there.
type Principal struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id,omitempty"`
	Role     Role   `json:"role,omitempty"`
}
