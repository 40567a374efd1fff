package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatroom/internal/service"
	"chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

type ConversationHandler struct {
	conversationService service.ConversationService
	log                 logger.Logger
}

func NewConversationHandler(conversationService service.ConversationService, log logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		log:                 log,
	}
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	convs, err := h.conversationService.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	convID, ok := conversationID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	before, err := strconv.ParseInt(c.DefaultQuery("before", "0"), 10, 64)
	if err != nil || before < 0 {
		fail(c, fmt.Errorf("%w: before must be a message id", errors.ErrBadRequest))
		return
	}

	msgs, err := h.conversationService.ListMessages(c.Request.Context(), userID, convID, limit, before)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": nonNil(msgs)})
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	convID, ok := conversationID(c)
	if !ok {
		return
	}

	marked, err := h.conversationService.MarkRead(c.Request.Context(), userID, convID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": marked, "unread_count": 0})
}

func conversationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, fmt.Errorf("%w: Conversation not found", errors.ErrNotFound))
		return uuid.Nil, false
	}
	return id, true
}
