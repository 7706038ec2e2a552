package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

// LoginService orchestrates a single login attempt: lockout check, password
// verification, expiry enforcement, counter updates, and the fresh role
// lookup for the requested tenant.
//
// All rejections reach the caller as one of the domain sentinels; the HTTP
// layer collapses them into a uniform low-information response while the
// audit trail keeps the real reason.
type LoginService struct {
	users    ports.UserRepository
	accounts *AccountService
	roles    ports.RoleService
	audit    ports.AuditRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewLoginService(users ports.UserRepository, accounts *AccountService, roles ports.RoleService, audit ports.AuditRecorder, log zerolog.Logger) *LoginService {
	return &LoginService{
		users:    users,
		accounts: accounts,
		roles:    roles,
		audit:    audit,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login decides one attempt. An unknown email and a wrong password are
// indistinguishable to the caller; a locked account rejects even a correct
// password until the lock expires on its own.
func (s *LoginService) Login(ctx context.Context, in ports.LoginInput) (*domain.Principal, error) {
	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.audit.RecordAuthEvent(ctx, nil, domain.AuthEventLogin, false, in.Meta)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	now := s.now()
	if user.LockedAt(now) {
		s.audit.RecordAuthEvent(ctx, &user.ID, domain.AuthEventAccountLocked, false, in.Meta)
		return nil, domain.ErrAccountLocked
	}

	if !s.accounts.VerifyPassword(user, in.Password) {
		if _, recErr := s.accounts.RecordFailedAttempt(ctx, user, in.Meta); recErr != nil {
			// The attempt is rejected regardless; losing the increment is
			// logged, never surfaced.
			s.log.Error().Err(recErr).Str("user_id", user.ID).Msg("failed to record login failure")
		}
		s.audit.RecordAuthEvent(ctx, &user.ID, domain.AuthEventLogin, false, in.Meta)
		return nil, domain.ErrInvalidCredentials
	}

	if user.PasswordExpiredAt(now) {
		s.audit.RecordAuthEvent(ctx, &user.ID, domain.AuthEventPasswordExpired, false, in.Meta)
		return nil, domain.ErrPasswordExpired
	}

	// The counter reset must land before the attempt is reported as a
	// success; a store failure here denies the login rather than handing
	// out a principal whose state never persisted.
	if err := s.accounts.RecordSuccessfulLogin(ctx, user); err != nil {
		return nil, err
	}

	tenantID := in.TenantID
	if tenantID == "" {
		tenantID = user.DefaultTenantID
	}

	var role domain.Role
	if tenantID != "" {
		role, err = s.roles.GetRole(ctx, user.ID, tenantID)
		if err != nil && !errors.Is(err, domain.ErrRoleNotFound) {
			return nil, fmt.Errorf("resolve role: %w", err)
		}
	}

	s.audit.RecordAuthEvent(ctx, &user.ID, domain.AuthEventLogin, true, in.Meta)
	return &domain.Principal{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: tenantID,
		Role:     role,
	}, nil
}
