package domain

import (
	"time"

	"github.com/google/uuid"
)

// Realtime event names.
const (
	EventConnected             = "connected"
	EventAuthenticate          = "authenticate"
	EventAuthenticated         = "authenticated"
	EventError                 = "error"
	EventUserOnline            = "user:online"
	EventUserOffline           = "user:offline"
	EventMessageSend           = "message:send"
	EventMessageNew            = "message:new"
	EventChatroomSend          = "chatroom:send"
	EventChatroomMessage       = "chatroom:message"
	EventFriendRequestNew      = "friend_request:new"
	EventFriendRequestAccepted = "friend_request:accepted"
	EventTypingStart           = "typing:start"
	EventTypingStop            = "typing:stop"
)

// Client to server payloads.

type MessageSendRequest struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Content     string    `json:"content"`
}

type ChatroomSendRequest struct {
	Content string `json:"content"`
}

type TypingRequest struct {
	RecipientID uuid.UUID `json:"recipient_id"`
}

// Server to client payloads.

type ConnectedPayload struct {
	Message string `json:"message"`
}

type AuthenticatedPayload struct {
	User AccountProfile `json:"user"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type UserOnlinePayload struct {
	UserID uuid.UUID   `json:"user_id"`
	User   UserProfile `json:"user"`
}

type UserOfflinePayload struct {
	UserID   uuid.UUID `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

type FriendRequestNewPayload struct {
	Request FriendRequest `json:"request"`
}

type FriendRequestAcceptedPayload struct {
	User UserProfile `json:"user"`
}

type TypingStartPayload struct {
	UserID uuid.UUID   `json:"user_id"`
	User   UserProfile `json:"user"`
}

type TypingStopPayload struct {
	UserID uuid.UUID `json:"user_id"`
}
