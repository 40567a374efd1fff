package service

import (
	"context"

	"github.com/google/uuid"

	"chatroom/internal/domain"
	"chatroom/internal/realtime"
	"chatroom/internal/repository"
	"chatroom/pkg/logger"
)

type UserService interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context, userID uuid.UUID) ([]domain.UserWithPresence, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.UserWithPresence, error)
}

type userService struct {
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
	registry   *realtime.Registry
	log        logger.Logger
}

func NewUserService(userRepo repository.UserRepository, friendRepo repository.FriendRepository, registry *realtime.Registry, log logger.Logger) UserService {
	return &userService{
		userRepo:   userRepo,
		friendRepo: friendRepo,
		registry:   registry,
		log:        log,
	}
}

func (s *userService) GetMe(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context, userID uuid.UUID) ([]domain.UserWithPresence, error) {
	users, err := s.userRepo.ListExcept(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withPresence(users), nil
}

func (s *userService) ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.UserWithPresence, error) {
	friends, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withPresence(friends), nil
}

func (s *userService) withPresence(users []*domain.User) []domain.UserWithPresence {
	out := make([]domain.UserWithPresence, 0, len(users))
	for _, u := range users {
		out = append(out, u.WithPresence(s.registry.IsOnline(u.ID)))
	}
	return out
}
