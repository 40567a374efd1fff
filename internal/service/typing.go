package service

import (
	"context"

	"github.com/google/uuid"

	"chatroom/internal/domain"
	"chatroom/internal/realtime"
	"chatroom/internal/repository"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

// TypingService relays typing indicators. Nothing is stored and an offline
// recipient simply gets nothing.
type TypingService interface {
	Start(ctx context.Context, conn realtime.Conn, recipientID uuid.UUID) error
	Stop(ctx context.Context, conn realtime.Conn, recipientID uuid.UUID) error
}

type typingService struct {
	userRepo repository.UserRepository
	registry *realtime.Registry
	log      logger.Logger
}

func NewTypingService(userRepo repository.UserRepository, registry *realtime.Registry, log logger.Logger) TypingService {
	return &typingService{
		userRepo: userRepo,
		registry: registry,
		log:      log,
	}
}

func (s *typingService) Start(ctx context.Context, conn realtime.Conn, recipientID uuid.UUID) error {
	senderID, ok := s.registry.UserOf(conn)
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	if !s.registry.IsOnline(recipientID) {
		return nil
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return err
	}

	s.registry.EmitToUser(recipientID, domain.EventTypingStart, domain.TypingStartPayload{
		UserID: senderID,
		User:   sender.Profile(),
	})
	return nil
}

func (s *typingService) Stop(ctx context.Context, conn realtime.Conn, recipientID uuid.UUID) error {
	senderID, ok := s.registry.UserOf(conn)
	if !ok {
		return apperrors.ErrUnauthenticated
	}

	s.registry.EmitToUser(recipientID, domain.EventTypingStop, domain.TypingStopPayload{UserID: senderID})
	return nil
}
