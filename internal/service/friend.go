package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"chatroom/internal/domain"
	"chatroom/internal/realtime"
	"chatroom/internal/repository"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

type FriendService interface {
	// Create opens a pending request from one user to another and notifies
	// the recipient if they are online.
	Create(ctx context.Context, fromUserID, toUserID uuid.UUID) (*domain.FriendRequest, error)
	// Respond moves a pending request to a terminal state. Only the
	// recipient may respond.
	Respond(ctx context.Context, requestID int64, actorID uuid.UUID, decision domain.FriendRequestStatus) (*domain.FriendRequest, error)
	ListPending(ctx context.Context, userID uuid.UUID) (received, sent []*domain.FriendRequest, err error)
}

type friendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	registry   *realtime.Registry
	log        logger.Logger
}

func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository, registry *realtime.Registry, log logger.Logger) FriendService {
	return &friendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		registry:   registry,
		log:        log,
	}
}

func (s *friendService) Create(ctx context.Context, fromUserID, toUserID uuid.UUID) (*domain.FriendRequest, error) {
	if toUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: to_user_id is required", apperrors.ErrBadRequest)
	}
	if fromUserID == toUserID {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", apperrors.ErrBadRequest)
	}

	sender, err := s.userRepo.GetByID(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, toUserID); err != nil {
		return nil, err
	}

	friends, err := s.friendRepo.AreFriends(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, apperrors.ErrAlreadyFriends
	}

	req, err := s.friendRepo.CreateRequest(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Friend request created", "request_id", req.ID, "from", fromUserID, "to", toUserID)

	notice := *req
	profile := sender.Profile()
	notice.FromUser = &profile
	s.registry.EmitToUser(toUserID, domain.EventFriendRequestNew, domain.FriendRequestNewPayload{Request: notice})

	return req, nil
}

func (s *friendService) Respond(ctx context.Context, requestID int64, actorID uuid.UUID, decision domain.FriendRequestStatus) (*domain.FriendRequest, error) {
	if !decision.IsTerminal() {
		return nil, fmt.Errorf("%w: invalid action", apperrors.ErrBadRequest)
	}

	req, friendship, err := s.friendRepo.Respond(ctx, requestID, actorID, decision)
	if err != nil {
		return nil, err
	}

	s.log.Info("Friend request answered", "request_id", req.ID, "status", req.Status)

	if friendship == nil {
		return req, nil
	}

	// Уведомляем отправителя, если он онлайн
	if s.registry.IsOnline(req.FromUserID) {
		responder, err := s.userRepo.GetByID(ctx, actorID)
		if err != nil {
			s.log.Warn("Failed to load responder profile", "error", err, "user_id", actorID)
			return req, nil
		}
		s.registry.EmitToUser(req.FromUserID, domain.EventFriendRequestAccepted, domain.FriendRequestAcceptedPayload{User: responder.Profile()})
	}

	return req, nil
}

func (s *friendService) ListPending(ctx context.Context, userID uuid.UUID) ([]*domain.FriendRequest, []*domain.FriendRequest, error) {
	return s.friendRepo.ListPending(ctx, userID)
}
