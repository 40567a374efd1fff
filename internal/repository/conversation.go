package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatroom/internal/domain"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

const (
	DefaultMessagePageSize = 50
	MaxMessagePageSize     = 200
)

type ConversationRepository interface {
	// GetOrCreateDirect returns the single direct conversation between a and
	// b, creating it if needed. Concurrent callers for the same pair get the
	// same conversation.
	GetOrCreateDirect(ctx context.Context, a, b uuid.UUID) (*domain.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	SaveMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error)
	// ListMessages returns up to limit messages older than before (0 means
	// newest), oldest first.
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int, before int64) ([]*domain.EnrichedMessage, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationEntry, error)
}

type conversationRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewConversationRepository(db *pgxpool.Pool, log logger.Logger) ConversationRepository {
	return &conversationRepository{db: db, log: log}
}

// ClampPageSize normalizes a requested page size.
func ClampPageSize(limit int) int {
	if limit <= 0 {
		return DefaultMessagePageSize
	}
	if limit > MaxMessagePageSize {
		return MaxMessagePageSize
	}
	return limit
}

func (r *conversationRepository) GetOrCreateDirect(ctx context.Context, a, b uuid.UUID) (*domain.Conversation, error) {
	if a == b {
		return nil, apperrors.ErrInvalidParticipants
	}
	low, high := domain.OrderedPair(a, b)

	_, err := r.db.Exec(ctx, `
		INSERT INTO conversations (id, type, user_low_id, user_high_id, created_at, updated_at)
		VALUES ($1, 'direct', $2, $3, NOW(), NOW())
		ON CONFLICT (user_low_id, user_high_id) DO NOTHING
	`, uuid.New(), low, high)
	if err != nil {
		r.log.Error("Failed to create conversation", "error", err)
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	conv := &domain.Conversation{}
	var convType string
	err = r.db.QueryRow(ctx, `
		SELECT id, type, user_low_id, user_high_id, created_at, updated_at
		FROM conversations
		WHERE user_low_id = $1 AND user_high_id = $2
	`, low, high).Scan(&conv.ID, &convType, &conv.UserLowID, &conv.UserHighID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to load conversation", "error", err)
		return nil, err
	}
	conv.Type = domain.ConversationType(convType)
	return conv, nil
}

func (r *conversationRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversations
			WHERE id = $1 AND (user_low_id = $2 OR user_high_id = $2)
		)
	`, conversationID, userID).Scan(&ok)
	if err != nil {
		r.log.Error("Failed to check participant", "error", err)
		return false, err
	}
	return ok, nil
}

func (r *conversationRepository) SaveMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	query := `
		WITH touched AS (
			UPDATE conversations SET updated_at = NOW() WHERE id = $1
		)
		INSERT INTO messages (conversation_id, sender_id, content, content_type, created_at)
		VALUES ($1, $2, $3, 'text', NOW())
		RETURNING id, conversation_id, sender_id, content, content_type, created_at, read_at
	`

	msg := &domain.Message{}
	var contentType string
	err := r.db.QueryRow(ctx, query, conversationID, senderID, content).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &contentType, &msg.CreatedAt, &msg.ReadAt,
	)
	if err != nil {
		r.log.Error("Failed to save message", "error", err, "conversation_id", conversationID)
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	msg.ContentType = domain.ContentType(contentType)
	return msg, nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int, before int64) ([]*domain.EnrichedMessage, error) {
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.content_type, m.created_at, m.read_at,
		       u.id, u.display_name, u.avatar_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = $1 AND ($3::bigint = 0 OR m.id < $3::bigint)
		ORDER BY m.id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, conversationID, ClampPageSize(limit), before)
	if err != nil {
		r.log.Error("Failed to list messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.EnrichedMessage
	for rows.Next() {
		m := &domain.EnrichedMessage{}
		var contentType string
		err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &contentType, &m.CreatedAt, &m.ReadAt,
			&m.Sender.ID, &m.Sender.DisplayName, &m.Sender.AvatarURL,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		m.ContentType = domain.ContentType(contentType)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *conversationRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages SET read_at = NOW()
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`, conversationID, userID)
	if err != nil {
		r.log.Error("Failed to mark messages read", "error", err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *conversationRepository) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`, conversationID, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count unread messages", "error", err)
		return 0, err
	}
	return count, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationEntry, error) {
	query := `
		SELECT c.id, c.type, c.user_low_id, c.user_high_id, c.created_at, c.updated_at,
		       u.id, u.email, u.display_name, u.avatar_url, u.google_id, u.last_seen_at, u.created_at, u.updated_at,
		       lm.id, lm.sender_id, lm.content, lm.content_type, lm.created_at,
		       (SELECT COUNT(*) FROM messages um
		        WHERE um.conversation_id = c.id AND um.sender_id <> $1 AND um.read_at IS NULL)
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.user_low_id = $1 THEN c.user_high_id ELSE c.user_low_id END
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, content_type, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY id DESC
			LIMIT 1
		) lm ON TRUE
		WHERE c.user_low_id = $1 OR c.user_high_id = $1
		ORDER BY c.updated_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list conversations", "error", err)
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.ConversationEntry
	for rows.Next() {
		var (
			e           domain.ConversationEntry
			convType    string
			lastID      *int64
			lastSender  *uuid.UUID
			lastContent *string
			lastType    *string
			lastAt      *time.Time
		)
		err := rows.Scan(
			&e.Conversation.ID, &convType, &e.Conversation.UserLowID, &e.Conversation.UserHighID,
			&e.Conversation.CreatedAt, &e.Conversation.UpdatedAt,
			&e.OtherUser.ID, &e.OtherUser.Email, &e.OtherUser.DisplayName, &e.OtherUser.AvatarURL,
			&e.OtherUser.GoogleID, &e.OtherUser.LastSeenAt, &e.OtherUser.CreatedAt, &e.OtherUser.UpdatedAt,
			&lastID, &lastSender, &lastContent, &lastType, &lastAt,
			&e.UnreadCount,
		)
		if err != nil {
			r.log.Error("Failed to scan conversation", "error", err)
			return nil, err
		}
		e.Conversation.Type = domain.ConversationType(convType)
		if lastID != nil {
			e.LastMessage = &domain.Message{
				ID:             *lastID,
				ConversationID: e.Conversation.ID,
				SenderID:       *lastSender,
				Content:        *lastContent,
				ContentType:    domain.ContentType(*lastType),
				CreatedAt:      *lastAt,
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
