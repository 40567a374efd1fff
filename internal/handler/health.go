package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatroom/internal/realtime"
)

type HealthHandler struct {
	registry *realtime.Registry
}

func NewHealthHandler(registry *realtime.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "chatroom",
		"online":  h.registry.Count(),
	})
}
