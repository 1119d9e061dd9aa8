package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/session/entity"
)

// NOTE: the refresh_token_hash column holds a SHA-256 digest of the issued
// refresh token, never the token itself.

// SessionRepo persists sessions in Postgres.
type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// EnsureTable creates the user_sessions table if not exists (idempotent).
func (r *SessionRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS user_sessions (
  id UUID PRIMARY KEY,
  user_id UUID NOT NULL REFERENCES users(id),
  refresh_token_hash TEXT NOT NULL UNIQUE,
  device_identifier TEXT,
  device_name TEXT,
  device_type TEXT,
  ip_address TEXT NOT NULL,
  user_agent TEXT,
  expires_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  last_active_at TIMESTAMPTZ NOT NULL,
  is_revoked BOOLEAN NOT NULL DEFAULT false,
  revoked_reason TEXT,
  revoked_at TIMESTAMPTZ,
  CHECK (expires_at > created_at)
);
CREATE INDEX IF NOT EXISTS idx_user_sessions_user_id ON user_sessions(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s *entity.Session) error {
	const q = `INSERT INTO user_sessions (id,user_id,refresh_token_hash,device_identifier,device_name,device_type,
		  ip_address,user_agent,expires_at,created_at,last_active_at,is_revoked,revoked_reason,revoked_at)
		  VALUES (:id,:user_id,:refresh_token_hash,:device_identifier,:device_name,:device_type,
		  :ip_address,:user_agent,:expires_at,:created_at,:last_active_at,:is_revoked,:revoked_reason,:revoked_at)`
	_, err := r.db.NamedExecContext(ctx, q, s)
	return err
}

// GetByID fetches a session row or sql.ErrNoRows.
func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	const q = `SELECT id, user_id, refresh_token_hash, device_identifier, device_name, device_type,
		ip_address, user_agent, expires_at, created_at, last_active_at, is_revoked, revoked_reason, revoked_at
		FROM user_sessions WHERE id=$1`
	var s entity.Session
	if err := r.db.GetContext(ctx, &s, q, id); err != nil {
		return nil, err
	}
	return &s, nil
}
