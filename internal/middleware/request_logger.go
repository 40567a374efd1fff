package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"chatroom/pkg/logger"
)

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}

		switch {
		case status >= 500:
			log.Error("Request", args...)
		case status >= 400:
			log.Warn("Request", args...)
		default:
			log.Info("Request", args...)
		}
	}
}
