package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/ids"
)

const pgUniqueViolation = "23505"
const pgForeignKeyViolation = "23503"

const userColumns = `id, email, password_hash, default_tenant_id, failed_login_attempts,
	locked_until, password_expires_at, password_history, created_at, updated_at`

// UserRepository persists users in the users table.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == "" {
		user.ID = ids.New()
	}
	history, err := json.Marshal(user.PasswordHistory)
	if err != nil {
		return nil, fmt.Errorf("marshal password history: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`insert into users (id, email, password_hash, default_tenant_id, failed_login_attempts,
			locked_until, password_expires_at, password_history, created_at, updated_at)
		 values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Email, user.PasswordHash, nullString(user.DefaultTenantID),
		user.FailedLoginAttempts, user.LockedUntil, user.PasswordExpiresAt,
		history, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = $1`, email)
	return scanUser(row)
}

// RecordFailedAttempt increments the counter and arms the lock in a single
// statement, so concurrent failures against the same user cannot lose an
// increment.
func (r *UserRepository) RecordFailedAttempt(ctx context.Context, userID string, threshold int, lockUntil time.Time) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`update users
		 set failed_login_attempts = failed_login_attempts + 1,
		     locked_until = case when failed_login_attempts + 1 >= $2 then $3 else locked_until end,
		     updated_at = now()
		 where id = $1
		 returning `+userColumns,
		userID, threshold, lockUntil,
	)
	return scanUser(row)
}

func (r *UserRepository) ResetLoginState(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`update users
		 set failed_login_attempts = 0, locked_until = null, updated_at = now()
		 where id = $1`, userID)
	if err != nil {
		return fmt.Errorf("reset login state: %w", err)
	}
	return requireRow(res)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string, history []string, expiresAt time.Time) error {
	if history == nil {
		history = []string{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal password history: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`update users
		 set password_hash = $2, password_history = $3, password_expires_at = $4, updated_at = now()
		 where id = $1`,
		userID, passwordHash, raw, expiresAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `delete from users where id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u             domain.User
		defaultTenant sql.NullString
		lockedUntil   sql.NullTime
		expiresAt     sql.NullTime
		history       []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &defaultTenant, &u.FailedLoginAttempts,
		&lockedUntil, &expiresAt, &history, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if defaultTenant.Valid {
		u.DefaultTenantID = defaultTenant.String
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time.UTC()
		u.LockedUntil = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		u.PasswordExpiresAt = &t
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &u.PasswordHistory); err != nil {
			return nil, fmt.Errorf("unmarshal password history: %w", err)
		}
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
