package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatroom/internal/service"
	"chatroom/pkg/logger"
)

const rateLimitWindowSeconds = 60

type RateLimitMiddleware struct {
	rateLimitService service.RateLimitService
	perMinute        int
	log              logger.Logger
}

func NewRateLimitMiddleware(rateLimitService service.RateLimitService, perMinute int, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		perMinute:        perMinute,
		log:              log,
	}
}

// Limit counts requests per client IP and route group.
func (m *RateLimitMiddleware) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := m.perMinute
		if limit <= 0 {
			c.Next()
			return
		}
		key := "ratelimit:http:" + scope + ":" + c.ClientIP()

		allowed, err := m.rateLimitService.CheckLimit(c.Request.Context(), key, limit, rateLimitWindowSeconds)
		if err != nil {
			m.log.Error("Rate limit check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !allowed {
			c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		count, err := m.rateLimitService.Increment(c.Request.Context(), key, rateLimitWindowSeconds)
		if err != nil {
			m.log.Error("Rate limit increment failed", "error", err)
		}

		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}
