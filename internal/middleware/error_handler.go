package middleware

import (
	"github.com/gin-gonic/gin"

	"chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

// ErrorHandler renders the last error attached with c.Error, unless the
// handler already wrote a response.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		apiErr := errors.FromError(err)
		if apiErr.Code >= 500 {
			log.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		}

		c.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
	}
}
