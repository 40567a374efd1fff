package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"chatroom/pkg/logger"
)

type Repositories struct {
	User         UserRepository
	Friend       FriendRepository
	Conversation ConversationRepository
	RateLimit    RateLimitRepository
	Session      SessionRepository
}

func NewRepositories(db *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Repositories {
	repos := &Repositories{
		User:         NewUserRepository(db, log),
		Friend:       NewFriendRepository(db, log),
		Conversation: NewConversationRepository(db, log),
		RateLimit:    NewRateLimitRepository(rdb, log),
		Session:      NewSessionRepository(rdb, log),
	}

	log.Info("Repositories initialized", "store", "postgres", "cache", "redis")
	return repos
}
