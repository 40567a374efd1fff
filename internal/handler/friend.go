package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatroom/internal/domain"
	"chatroom/internal/service"
	"chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

type FriendHandler struct {
	friendService service.FriendService
	log           logger.Logger
}

func NewFriendHandler(friendService service.FriendService, log logger.Logger) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
		log:           log,
	}
}

type CreateFriendRequestRequest struct {
	ToUserID string `json:"to_user_id"`
}

type RespondFriendRequestRequest struct {
	Action string `json:"action"`
}

func (h *FriendHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	received, sent, err := h.friendService.ListPending(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": nonNil(received),
		"sent":     nonNil(sent),
	})
}

func (h *FriendHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ToUserID == "" {
		fail(c, fmt.Errorf("%w: to_user_id is required", errors.ErrBadRequest))
		return
	}

	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		fail(c, errors.ErrUserNotFound)
		return
	}

	created, err := h.friendService.Create(c.Request.Context(), userID, toUserID)
	if err != nil {
		h.log.Debug("Friend request rejected", "error", err, "from", userID, "to", toUserID)
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": created})
}

func (h *FriendHandler) Respond(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, fmt.Errorf("%w: Friend request not found", errors.ErrNotFound))
		return
	}

	var req RespondFriendRequestRequest
	_ = c.ShouldBindJSON(&req)
	decision, ok := domain.ParseFriendRequestDecision(req.Action)
	if !ok {
		fail(c, fmt.Errorf("%w: Invalid action", errors.ErrBadRequest))
		return
	}

	updated, err := h.friendService.Respond(c.Request.Context(), requestID, userID, decision)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": updated})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
