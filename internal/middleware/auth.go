package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"chatroom/internal/service"
	"chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

type AuthMiddleware struct {
	authService service.AuthService
	cookieName  string
	log         logger.Logger
}

func NewAuthMiddleware(authService service.AuthService, cookieName string, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		cookieName:  cookieName,
		log:         log,
	}
}

// RequireAuth rejects requests without a valid session and stores the
// session user under "user_id".
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, m.cookieName)
		if token == "" {
			c.AbortWithStatusJSON(errors.HTTPStatusFromError(errors.ErrUnauthenticated), gin.H{"error": "Not authenticated"})
			return
		}

		claims, err := m.authService.ValidateSession(c.Request.Context(), token)
		if err != nil {
			m.log.Debug("Session rejected", "error", err, "path", c.Request.URL.Path)
			apiErr := errors.FromError(err)
			c.AbortWithStatusJSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("session_token", token)
		c.Next()
	}
}

// SessionToken finds the session token in the cookie, a Bearer header or
// the "token" query parameter, in that order.
func SessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	return c.Query("token")
}
