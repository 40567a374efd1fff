package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatroom/internal/domain"
	"chatroom/internal/realtime"
	"chatroom/internal/repository"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

const messageRateWindow = time.Minute

type MessageService interface {
	// SendDirect persists a message from the user behind conn to a friend and
	// delivers it to both participants. The sender is always taken from the
	// registry, never from the payload.
	SendDirect(ctx context.Context, conn realtime.Conn, recipientID uuid.UUID, content string) (*domain.EnrichedMessage, error)
	// SendChatroom broadcasts an ephemeral message to every registered
	// connection, the sender included.
	SendChatroom(ctx context.Context, conn realtime.Conn, content string) (*domain.ChatroomMessage, error)
}

type messageService struct {
	userRepo      repository.UserRepository
	friendRepo    repository.FriendRepository
	convRepo      repository.ConversationRepository
	conversations ConversationService
	rateLimit     RateLimitService
	registry      *realtime.Registry
	seq           *realtime.Sequence
	perMinute     int
	log           logger.Logger
}

func NewMessageService(
	userRepo repository.UserRepository,
	friendRepo repository.FriendRepository,
	convRepo repository.ConversationRepository,
	conversations ConversationService,
	rateLimit RateLimitService,
	registry *realtime.Registry,
	perMinute int,
	log logger.Logger,
) MessageService {
	return &messageService{
		userRepo:      userRepo,
		friendRepo:    friendRepo,
		convRepo:      convRepo,
		conversations: conversations,
		rateLimit:     rateLimit,
		registry:      registry,
		seq:           realtime.NewSequence(),
		perMinute:     perMinute,
		log:           log,
	}
}

func (s *messageService) SendDirect(ctx context.Context, conn realtime.Conn, recipientID uuid.UUID, content string) (*domain.EnrichedMessage, error) {
	senderID, ok := s.registry.UserOf(conn)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.ErrEmptyContent
	}

	friends, err := s.friendRepo.AreFriends(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, apperrors.ErrNotFriends
	}

	// Only sends that passed validation count against the limit.
	if err := s.allow(ctx, senderID); err != nil {
		return nil, err
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetOrCreateDirect(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}

	msg, err := s.convRepo.SaveMessage(ctx, conv.ID, senderID, content)
	if err != nil {
		return nil, err
	}

	enriched := &domain.EnrichedMessage{Message: *msg, Sender: sender.Profile()}

	// Сначала сохранили, теперь доставляем
	s.registry.Emit(conn, domain.EventMessageNew, enriched)
	s.registry.EmitToUser(recipientID, domain.EventMessageNew, enriched)

	return enriched, nil
}

func (s *messageService) SendChatroom(ctx context.Context, conn realtime.Conn, content string) (*domain.ChatroomMessage, error) {
	senderID, ok := s.registry.UserOf(conn)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.ErrEmptyContent
	}
	if err := s.allow(ctx, senderID); err != nil {
		return nil, err
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	msg := &domain.ChatroomMessage{
		ID:        s.seq.Next(),
		Sender:    sender.Profile(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	delivered := s.registry.Broadcast(domain.EventChatroomMessage, msg)
	s.log.Debug("Chatroom message broadcast", "id", msg.ID, "sender_id", senderID, "delivered", delivered)

	return msg, nil
}

// allow applies the per-user send limit. A limiter outage lets the message
// through.
func (s *messageService) allow(ctx context.Context, userID uuid.UUID) error {
	ok, err := s.rateLimit.Allow(ctx, "ratelimit:messages:"+userID.String(), s.perMinute, messageRateWindow)
	if err != nil {
		s.log.Error("Message rate limit check failed", "error", err, "user_id", userID)
		return nil
	}
	if !ok {
		return apperrors.ErrRateLimited
	}
	return nil
}
