package domain

import (
	"time"

	"github.com/google/uuid"
)

type ConversationType string

const (
	ConversationTypeDirect ConversationType = "direct"
)

type Conversation struct {
	ID         uuid.UUID        `json:"id"`
	Type       ConversationType `json:"type"`
	UserLowID  uuid.UUID        `json:"-"`
	UserHighID uuid.UUID        `json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.UserLowID == userID || c.UserHighID == userID
}

// ConversationEntry is one row of a user's conversation list as returned
// by the store.
type ConversationEntry struct {
	Conversation Conversation
	OtherUser    User
	LastMessage  *Message
	UnreadCount  int
}

type ConversationOtherUser struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	IsOnline    bool      `json:"is_online"`
}

type MessagePreview struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	SenderID  uuid.UUID `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationSummary struct {
	ID          uuid.UUID             `json:"id"`
	Type        ConversationType      `json:"type"`
	OtherUser   ConversationOtherUser `json:"other_user"`
	LastMessage *MessagePreview       `json:"last_message"`
	UnreadCount int                   `json:"unread_count"`
}
