package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// Run by authctl migrate and at service startup.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id UUID PRIMARY KEY,
  external_id TEXT,
  username TEXT UNIQUE,
  email CITEXT NOT NULL UNIQUE,
  password_hash TEXT,
  password_updated_at TIMESTAMPTZ,
  password_reset_required BOOLEAN NOT NULL DEFAULT false,
  failed_login_attempts INT NOT NULL DEFAULT 0,
  last_failed_attempt TIMESTAMPTZ,
  account_locked_until TIMESTAMPTZ,
  email_verified BOOLEAN NOT NULL DEFAULT false,
  email_verification_token TEXT,
  email_verification_sent_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  last_login_at TIMESTAMPTZ,
  last_login_ip TEXT,
  last_user_agent TEXT,
  requires_mfa BOOLEAN NOT NULL DEFAULT false,
  auth_provider TEXT NOT NULL DEFAULT 'local',
  user_state TEXT NOT NULL DEFAULT 'registered',
  access_range TEXT NOT NULL DEFAULT 'user',
  deletion_scheduled_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_users_user_state ON users(user_state);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// ExistsByEmail reports whether a user with email is stored (case-insensitive due to citext).
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, email); err != nil {
		return false, err
	}
	return exists, nil
}

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Create inserts a new user row. A row whose email is already stored yields
// entity.ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id,external_id,username,email,password_hash,password_updated_at,password_reset_required,
		  failed_login_attempts,last_failed_attempt,account_locked_until,email_verified,email_verification_token,
		  email_verification_sent_at,created_at,updated_at,requires_mfa,auth_provider,user_state,access_range,deletion_scheduled_at)
		  VALUES (:id,:external_id,:username,:email,:password_hash,:password_updated_at,:password_reset_required,
		  :failed_login_attempts,:last_failed_attempt,:account_locked_until,:email_verified,:email_verification_token,
		  :email_verification_sent_at,:created_at,:updated_at,:requires_mfa,:auth_provider,:user_state,:access_range,:deletion_scheduled_at)`
	params := map[string]any{
		"id":                         u.ID,
		"external_id":                u.ExternalID,
		"username":                   u.Username,
		"email":                      u.Email,
		"password_hash":              u.PasswordHash,
		"password_updated_at":        u.PasswordUpdatedAt,
		"password_reset_required":    u.PasswordResetRequired,
		"failed_login_attempts":      u.FailedLoginAttempts,
		"last_failed_attempt":        u.LastFailedAttempt,
		"account_locked_until":       u.AccountLockedUntil,
		"email_verified":             u.EmailVerified,
		"email_verification_token":   u.EmailVerificationToken,
		"email_verification_sent_at": u.EmailVerificationSentAt,
		"created_at":                 u.CreatedAt,
		"updated_at":                 u.UpdatedAt,
		"requires_mfa":               u.RequiresMFA,
		"auth_provider":              u.AuthProvider.String(),
		"user_state":                 u.UserState.String(),
		"access_range":               u.AccessRange.String(),
		"deletion_scheduled_at":      u.DeletionScheduledAt,
	}
	_, err := r.db.NamedExecContext(ctx, q, params)
	var pqErr *pq.Error
	// username is never set on insert and ids are random, so email is the column that collides
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", entity.ErrDuplicateEmail, pqErr.Constraint)
	}
	return err
}

// FindAuthProjection returns the fields needed to verify a password or sql.ErrNoRows.
func (r *UserRepo) FindAuthProjection(ctx context.Context, email string) (*entity.AuthUserDto, error) {
	const q = `SELECT id, email, password_hash, access_range FROM users WHERE email=$1`
	var row struct {
		ID           uuid.UUID      `db:"id"`
		Email        string         `db:"email"`
		PasswordHash sql.NullString `db:"password_hash"`
		AccessRange  string         `db:"access_range"`
	}
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, err
	}
	ar, err := entity.ParseAccessRange(row.AccessRange)
	if err != nil {
		return nil, err
	}
	return &entity.AuthUserDto{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash.String,
		AccessRange:  ar,
	}, nil
}

// SetVerificationToken stores the pending email verification token for a user.
func (r *UserRepo) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, sentAt time.Time) error {
	const q = `UPDATE users SET email_verification_token=$2, email_verification_sent_at=$3, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, token, sentAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByEmail loads the account row for email or returns sql.ErrNoRows.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT id, email, password_updated_at, email_verified, email_verification_sent_at,
		  created_at, updated_at, last_login_at, auth_provider, user_state, access_range
		  FROM users WHERE email=$1`
	var row struct {
		ID                      uuid.UUID    `db:"id"`
		Email                   string       `db:"email"`
		PasswordUpdatedAt       sql.NullTime `db:"password_updated_at"`
		EmailVerified           bool         `db:"email_verified"`
		EmailVerificationSentAt sql.NullTime `db:"email_verification_sent_at"`
		CreatedAt               time.Time    `db:"created_at"`
		UpdatedAt               time.Time    `db:"updated_at"`
		LastLoginAt             sql.NullTime `db:"last_login_at"`
		AuthProvider            string       `db:"auth_provider"`
		UserState               string       `db:"user_state"`
		AccessRange             string       `db:"access_range"`
	}
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, err
	}

	provider, err := entity.ParseAuthProvider(row.AuthProvider)
	if err != nil {
		return nil, err
	}
	state, err := entity.ParseUserState(row.UserState)
	if err != nil {
		return nil, err
	}
	ar, err := entity.ParseAccessRange(row.AccessRange)
	if err != nil {
		return nil, err
	}
	return &entity.User{
		ID:                      row.ID,
		Email:                   row.Email,
		PasswordUpdatedAt:       nullTime(row.PasswordUpdatedAt),
		EmailVerified:           row.EmailVerified,
		EmailVerificationSentAt: nullTime(row.EmailVerificationSentAt),
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
		LastLoginAt:             nullTime(row.LastLoginAt),
		AuthProvider:            provider,
		UserState:               state,
		AccessRange:             ar,
	}, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
