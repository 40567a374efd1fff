package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"chatroom/internal/domain"
	"chatroom/internal/realtime"
	"chatroom/internal/repository"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

type ConversationService interface {
	// GetOrCreateDirect returns the single direct conversation between a and
	// b, creating it on first use. Concurrent callers for the same pair get
	// the same conversation.
	GetOrCreateDirect(ctx context.Context, a, b uuid.UUID) (*domain.Conversation, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID, limit int, before int64) ([]*domain.EnrichedMessage, error)
	MarkRead(ctx context.Context, userID, conversationID uuid.UUID) (int64, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
	registry *realtime.Registry
	log      logger.Logger
	sfGroup  singleflight.Group
}

func NewConversationService(convRepo repository.ConversationRepository, registry *realtime.Registry, log logger.Logger) ConversationService {
	return &conversationService{
		convRepo: convRepo,
		registry: registry,
		log:      log,
	}
}

func (s *conversationService) GetOrCreateDirect(ctx context.Context, a, b uuid.UUID) (*domain.Conversation, error) {
	if a == b {
		return nil, apperrors.ErrInvalidParticipants
	}

	low, high := domain.OrderedPair(a, b)
	key := fmt.Sprintf("direct:%s:%s", low, high)

	// The store enforces uniqueness per pair; singleflight only saves the
	// duplicate round trips when both users write at the same moment.
	v, err, _ := s.sfGroup.Do(key, func() (interface{}, error) {
		return s.convRepo.GetOrCreateDirect(ctx, low, high)
	})
	if err != nil {
		return nil, err
	}

	conv := *v.(*domain.Conversation)
	return &conv, nil
}

func (s *conversationService) List(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	entries, err := s.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ConversationSummary, 0, len(entries))
	for _, e := range entries {
		summary := domain.ConversationSummary{
			ID:   e.Conversation.ID,
			Type: e.Conversation.Type,
			OtherUser: domain.ConversationOtherUser{
				ID:          e.OtherUser.ID,
				DisplayName: e.OtherUser.DisplayName,
				AvatarURL:   e.OtherUser.AvatarURL,
				IsOnline:    s.registry.IsOnline(e.OtherUser.ID),
			},
			UnreadCount: e.UnreadCount,
		}
		if e.LastMessage != nil {
			summary.LastMessage = e.LastMessage.Preview()
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *conversationService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, limit int, before int64) ([]*domain.EnrichedMessage, error) {
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.convRepo.ListMessages(ctx, conversationID, repository.ClampPageSize(limit), before)
}

func (s *conversationService) MarkRead(ctx context.Context, userID, conversationID uuid.UUID) (int64, error) {
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	return s.convRepo.MarkRead(ctx, conversationID, userID)
}

// authorize hides conversations the user is not part of behind NotFound.
func (s *conversationService) authorize(ctx context.Context, userID, conversationID uuid.UUID) error {
	ok, err := s.convRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: Conversation not found", apperrors.ErrNotFound)
	}
	return nil
}
