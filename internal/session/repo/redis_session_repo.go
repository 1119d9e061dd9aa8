package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/session/entity"
)

// RedisSessionRepo keeps sessions in Redis under session:<id>, expiring with the
// session itself.
type RedisSessionRepo struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisSessionRepo(client *redis.Client) *RedisSessionRepo {
	return &RedisSessionRepo{client: client, prefix: "session:", now: time.Now}
}

func (r *RedisSessionRepo) key(id uuid.UUID) string {
	return r.prefix + id.String()
}

// Create stores the session. Expired sessions and duplicate ids are rejected.
func (r *RedisSessionRepo) Create(ctx context.Context, s *entity.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.key(s.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	return nil
}

// GetByID returns sql.ErrNoRows for unknown or expired sessions, matching SessionRepo.
func (r *RedisSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	var s entity.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}
