package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chatroom/pkg/logger"
)

const revokedSessionKeyPrefix = "session:revoked:%s"

// SessionRepository tracks session token ids that were logged out before
// they expired.
type SessionRepository interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type sessionRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewSessionRepository(rdb *redis.Client, log logger.Logger) SessionRepository {
	return &sessionRepository{rdb: rdb, log: log}
}

func (r *sessionRepository) key(tokenID string) string {
	return fmt.Sprintf(revokedSessionKeyPrefix, tokenID)
}

func (r *sessionRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// already expired, nothing to remember
		return nil
	}
	if err := r.rdb.Set(ctx, r.key(tokenID), 1, ttl).Err(); err != nil {
		r.log.Error("Failed to revoke session", "error", err)
		return err
	}
	return nil
}

func (r *sessionRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		r.log.Error("Failed to check session revocation", "error", err)
		return false, err
	}
	return n > 0, nil
}
