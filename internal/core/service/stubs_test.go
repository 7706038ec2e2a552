package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

// stubUserRepo is an in-memory UserRepository mirroring the persistence
// contract, including the atomic failed-attempt increment.
type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User // keyed by id
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHistory = append([]string(nil), u.PasswordHistory...)
	if u.LockedUntil != nil {
		t := *u.LockedUntil
		clone.LockedUntil = &t
	}
	if u.PasswordExpiresAt != nil {
		t := *u.PasswordExpiresAt
		clone.PasswordExpiresAt = &t
	}
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	copy := cloneUser(user)
	if copy.ID == "" {
		r.nextID++
		copy.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) RecordFailedAttempt(_ context.Context, userID string, threshold int, lockUntil time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= threshold {
		t := lockUntil
		u.LockedUntil = &t
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) ResetLoginState(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string, history []string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordHistory = append([]string(nil), history...)
	t := expiresAt
	u.PasswordExpiresAt = &t
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, userID)
	return nil
}

// stubRoleRepo keeps one assignment per (user, tenant) pair.
type stubRoleRepo struct {
	mu          sync.Mutex
	assignments map[string]*domain.RoleAssignment
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{assignments: make(map[string]*domain.RoleAssignment)}
}

func pairKey(userID, tenantID string) string { return userID + "|" + tenantID }

func (r *stubRoleRepo) Get(_ context.Context, userID, tenantID string) (*domain.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[pairKey(userID, tenantID)]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubRoleRepo) Upsert(_ context.Context, userID, tenantID string, role domain.Role) (*domain.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(userID, tenantID)
	if existing, ok := r.assignments[key]; ok {
		existing.Role = role
		existing.UpdatedAt = time.Now().UTC()
		clone := *existing
		return &clone, nil
	}
	a := &domain.RoleAssignment{
		ID:        key,
		UserID:    userID,
		TenantID:  tenantID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	r.assignments[key] = a
	clone := *a
	return &clone, nil
}

func (r *stubRoleRepo) Delete(_ context.Context, userID, tenantID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(userID, tenantID)
	if _, ok := r.assignments[key]; !ok {
		return false, nil
	}
	delete(r.assignments, key)
	return true, nil
}

func (r *stubRoleRepo) ListByUser(_ context.Context, userID string) ([]domain.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RoleAssignment
	for _, a := range r.assignments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubRoleRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assignments)
}

// stubAuditRecorder captures events in memory for assertions.
type stubAuditRecorder struct {
	mu      sync.Mutex
	events  []domain.AuthAuditEntry
	changes []domain.ChangeAuditEntry
}

func (s *stubAuditRecorder) RecordAuthEvent(_ context.Context, userID *string, eventType domain.AuthEventType, success bool, meta ports.RequestMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, domain.AuthAuditEntry{
		UserID:    userID,
		EventType: eventType,
		Success:   success,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
}

func (s *stubAuditRecorder) RecordChange(_ context.Context, in ports.ChangeInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, domain.ChangeAuditEntry{
		UserID:     in.ActorUserID,
		UserEmail:  in.ActorEmail,
		TenantID:   in.TenantID,
		Action:     in.Action,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		OldValue:   in.OldValue,
		NewValue:   in.NewValue,
	})
}

func (s *stubAuditRecorder) ListAuthEvents(_ context.Context, _ string, _ int) ([]domain.AuthAuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuthAuditEntry(nil), s.events...), nil
}

func (s *stubAuditRecorder) countByType(t domain.AuthEventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.EventType == t {
			n++
		}
	}
	return n
}

func (s *stubAuditRecorder) last() *domain.AuthAuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	e := s.events[len(s.events)-1]
	return &e
}

// stubSecretSource resolves secrets from a static map; refreshed tracks
// rotation fallback reads.
type stubSecretSource struct {
	secrets   map[string][]byte
	rotated   map[string][]byte
	refreshed int
}

func (s *stubSecretSource) Secret(_ context.Context, tenantID string) ([]byte, error) {
	secret, ok := s.secrets[tenantID]
	if !ok {
		return nil, domain.ErrUnknownTenant
	}
	return secret, nil
}

func (s *stubSecretSource) Refresh(_ context.Context, tenantID string) ([]byte, error) {
	s.refreshed++
	if rotated, ok := s.rotated[tenantID]; ok {
		return rotated, nil
	}
	return s.Secret(context.Background(), tenantID)
}

// stubReplayGuard remembers seen deliveries; err forces the fail-open path.
type stubReplayGuard struct {
	seen map[string]bool
	err  error
}

func newStubReplayGuard() *stubReplayGuard {
	return &stubReplayGuard{seen: make(map[string]bool)}
}

func (g *stubReplayGuard) Seen(_ context.Context, tenantID, signature string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return g.seen[tenantID+"|"+signature], nil
}

func (g *stubReplayGuard) Mark(_ context.Context, tenantID, signature string) error {
	if g.err != nil {
		return g.err
	}
	g.seen[tenantID+"|"+signature] = true
	return nil
}
