package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatroom/internal/config"
	"chatroom/internal/realtime"
	"chatroom/internal/service"
	"chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Friend       *FriendHandler
	Conversation *ConversationHandler
	WebSocket    *WebSocketHandler
}

func NewHandlers(services *service.Services, registry *realtime.Registry, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(registry),
		Auth:         NewAuthHandler(services.Auth, cfg.Session, log),
		User:         NewUserHandler(services.User, log),
		Friend:       NewFriendHandler(services.Friend, log),
		Conversation: NewConversationHandler(services.Conversation, log),
		WebSocket:    NewWebSocketHandler(services, registry, services.Auth, cfg, log),
	}
}

// currentUser returns the session user set by the auth middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := currentUser(c)
	if !ok {
		fail(c, errors.ErrUnauthenticated)
	}
	return id, ok
}
