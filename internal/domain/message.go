package domain

import (
	"time"

	"github.com/google/uuid"
)

type ContentType string

const (
	ContentTypeText ContentType = "text"
)

type Message struct {
	ID             int64       `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	Content        string      `json:"content"`
	ContentType    ContentType `json:"content_type"`
	CreatedAt      time.Time   `json:"created_at"`
	ReadAt         *time.Time  `json:"-"`
}

func (m *Message) Preview() *MessagePreview {
	return &MessagePreview{
		ID:        m.ID,
		Content:   m.Content,
		SenderID:  m.SenderID,
		CreatedAt: m.CreatedAt,
	}
}

// EnrichedMessage is a persisted message together with its sender's
// public profile, the shape delivered to clients.
type EnrichedMessage struct {
	Message
	Sender UserProfile `json:"sender"`
}

// ChatroomMessage is never persisted.
type ChatroomMessage struct {
	ID        int64       `json:"id"`
	Sender    UserProfile `json:"sender"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}
