package service

import (
	"chatroom/internal/config"
	"chatroom/internal/realtime"
	"chatroom/internal/repository"
	"chatroom/pkg/logger"
)

type Services struct {
	Auth         AuthService
	User         UserService
	Friend       FriendService
	Conversation ConversationService
	Message      MessageService
	Presence     PresenceService
	Typing       TypingService
	RateLimit    RateLimitService
}

func NewServices(repos *repository.Repositories, registry *realtime.Registry, cfg *config.Config, log logger.Logger) *Services {
	rateLimit := NewRateLimitService(repos.RateLimit, log)
	conversations := NewConversationService(repos.Conversation, registry, log)

	var provider IdentityProvider
	if cfg.Auth.Mode == config.AuthModeGoogle {
		provider = NewGoogleProvider(cfg.Auth)
		log.Info("Google login enabled")
	}

	return &Services{
		Auth:         NewAuthService(repos.User, repos.Session, provider, cfg.Auth.Mode, cfg.Session, log),
		User:         NewUserService(repos.User, repos.Friend, registry, log),
		Friend:       NewFriendService(repos.Friend, repos.User, registry, log),
		Conversation: conversations,
		Message:      NewMessageService(repos.User, repos.Friend, repos.Conversation, conversations, rateLimit, registry, cfg.RateLimit.MessagesPerMinute, log),
		Presence:     NewPresenceService(repos.User, repos.Friend, registry, log),
		Typing:       NewTypingService(repos.User, registry, log),
		RateLimit:    rateLimit,
	}
}
