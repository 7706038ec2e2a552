package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsgate/identity/internal/metrics"
	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

const minPasswordLength = 8

// Policy tunes lockout and password-lifetime behavior. Zero fields fall
// back to the defaults in the domain package.
type Policy struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	PasswordMaxAge    time.Duration
	HistoryDepth      int
}

func (p Policy) withDefaults() Policy {
	if p.MaxFailedAttempts <= 0 {
		p.MaxFailedAttempts = domain.MaxFailedLoginAttempts
	}
	if p.LockoutDuration <= 0 {
		p.LockoutDuration = domain.LockoutDuration
	}
	if p.PasswordMaxAge <= 0 {
		p.PasswordMaxAge = domain.PasswordMaxAge
	}
	if p.HistoryDepth <= 0 {
		p.HistoryDepth = domain.PasswordHistoryDepth
	}
	return p
}

// AccountService owns user credentials: hashing, lockout counters, and the
// password-history policy.
type AccountService struct {
	users  ports.UserRepository
	audit  ports.AuditRecorder
	policy Policy
	log    zerolog.Logger
	now    func() time.Time
}

// NewAccountService builds an AccountService with the given policy.
func NewAccountService(users ports.UserRepository, audit ports.AuditRecorder, policy Policy, log zerolog.Logger) *AccountService {
	return &AccountService{
		users:  users,
		audit:  audit,
		policy: policy.withDefaults(),
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with a freshly hashed password, a zeroed failure
// counter, empty history, and a 90-day password expiry.
func (s *AccountService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", domain.ErrInvalidCredentials)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidCredentials, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	expires := now.Add(s.policy.PasswordMaxAge)
	user := &domain.User{
		Email:             email,
		PasswordHash:      string(hash),
		PasswordExpiresAt: &expires,
		PasswordHistory:   []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return s.users.Create(ctx, user)
}

// VerifyPassword compares the candidate against the stored hash. bcrypt's
// comparison is constant-time over the hash output; the plaintext is never
// logged.
func (s *AccountService) VerifyPassword(user *domain.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// RecordFailedAttempt bumps the failure counter atomically. When the count
// reaches the threshold the account locks and an account_locked event is
// recorded.
func (s *AccountService) RecordFailedAttempt(ctx context.Context, user *domain.User, meta ports.RequestMeta) (*domain.User, error) {
	lockUntil := s.now().Add(s.policy.LockoutDuration)
	updated, err := s.users.RecordFailedAttempt(ctx, user.ID, s.policy.MaxFailedAttempts, lockUntil)
	if err != nil {
		return nil, fmt.Errorf("record failed attempt: %w", err)
	}
	if updated.FailedLoginAttempts >= s.policy.MaxFailedAttempts {
		metrics.AccountLockoutsTotal.Inc()
		s.audit.RecordAuthEvent(ctx, &user.ID, domain.AuthEventAccountLocked, false, meta)
		s.log.Info().Str("user_id", user.ID).Time("locked_until", lockUntil).Msg("account locked")
	}
	return updated, nil
}

// RecordSuccessfulLogin resets the failure counter and clears any lock.
func (s *AccountService) RecordSuccessfulLogin(ctx context.Context, user *domain.User) error {
	if err := s.users.ResetLoginState(ctx, user.ID); err != nil {
		return fmt.Errorf("reset login state: %w", err)
	}
	return nil
}

// ChangePassword rejects reuse of the current password or any of the
// retained history (compared by hash, never plaintext), then rotates the
// hash, pushes the old one onto the capped FIFO history, and starts a new
// expiry window.
func (s *AccountService) ChangePassword(ctx context.Context, userID, newPassword string, meta ports.RequestMeta) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidCredentials, minPasswordLength)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)) == nil {
		return domain.ErrPasswordReused
	}
	for _, prior := range user.PasswordHistory {
		if bcrypt.CompareHashAndPassword([]byte(prior), []byte(newPassword)) == nil {
			return domain.ErrPasswordReused
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	history := append(user.PasswordHistory, user.PasswordHash)
	if len(history) > s.policy.HistoryDepth {
		history = history[len(history)-s.policy.HistoryDepth:]
	}

	expires := s.now().Add(s.policy.PasswordMaxAge)
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash), history, expires); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.audit.RecordAuthEvent(ctx, &user.ID, domain.AuthEventPasswordChange, true, meta)
	return nil
}

// Delete removes the user. The schema cascades role assignments and nulls
// out audit references.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}
