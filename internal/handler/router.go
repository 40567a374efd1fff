package handler

import (
	"github.com/gin-gonic/gin"

	"chatroom/internal/config"
	"chatroom/internal/middleware"
	"chatroom/pkg/logger"
)

func NewRouter(
	handlers *Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Realtime.AllowedOrigins))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", handlers.Health.Check)

	auth := router.Group("/auth")
	{
		auth.POST("/dev-login", rateLimitMiddleware.Limit("auth"), handlers.Auth.DevLogin)
		auth.GET("/google", rateLimitMiddleware.Limit("auth"), handlers.Auth.GoogleLogin)
		auth.GET("/google/callback", handlers.Auth.GoogleCallback)
		auth.GET("/success", handlers.Auth.Success)
		auth.POST("/logout", authMiddleware.RequireAuth(), handlers.Auth.Logout)
	}

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		api.GET("/me", handlers.User.GetMe)
		api.GET("/users", handlers.User.List)
		api.GET("/friends", handlers.User.Friends)

		api.GET("/friend-requests", handlers.Friend.List)
		api.POST("/friend-requests", handlers.Friend.Create)
		api.PATCH("/friend-requests/:id", handlers.Friend.Respond)

		api.GET("/conversations", handlers.Conversation.List)
		api.GET("/conversations/:id/messages", handlers.Conversation.Messages)
		api.POST("/conversations/:id/read", handlers.Conversation.MarkRead)
	}

	// Session is checked inside so an unauthenticated client still gets
	// "connected" and an error frame on authenticate.
	router.GET("/ws", handlers.WebSocket.Handle)

	return router
}
