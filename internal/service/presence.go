package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatroom/internal/domain"
	"chatroom/internal/realtime"
	"chatroom/internal/repository"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

type PresenceService interface {
	// Connect greets a freshly opened connection. It has no identity yet.
	Connect(conn realtime.Conn)
	// Authenticate binds conn to the session user, records last-seen and
	// announces the user to online friends.
	Authenticate(ctx context.Context, conn realtime.Conn, sessionUserID uuid.UUID) (*domain.User, error)
	// Disconnect removes conn from the registry and, if it was the live
	// connection of a user, announces them offline.
	Disconnect(ctx context.Context, conn realtime.Conn)
	// DisconnectAll runs Disconnect for every registered connection and then
	// closes it. Used on shutdown.
	DisconnectAll(ctx context.Context) int
}

type presenceService struct {
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
	registry   *realtime.Registry
	now        func() time.Time
	log        logger.Logger
}

func NewPresenceService(userRepo repository.UserRepository, friendRepo repository.FriendRepository, registry *realtime.Registry, log logger.Logger) PresenceService {
	return &presenceService{
		userRepo:   userRepo,
		friendRepo: friendRepo,
		registry:   registry,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

func (s *presenceService) Connect(conn realtime.Conn) {
	s.registry.Emit(conn, domain.EventConnected, domain.ConnectedPayload{Message: "Connected to server"})
}

func (s *presenceService) Authenticate(ctx context.Context, conn realtime.Conn, sessionUserID uuid.UUID) (*domain.User, error) {
	if sessionUserID == uuid.Nil {
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, sessionUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, err
	}

	// A failed last-seen write must leave the registry untouched.
	seen := s.now()
	if err := s.userRepo.UpdateLastSeen(ctx, user.ID, seen); err != nil {
		return nil, err
	}
	user.LastSeenAt = &seen

	if prev := s.registry.Register(user.ID, conn); prev != nil {
		s.log.Info("Connection superseded", "user_id", user.ID, "previous_conn", prev.ID(), "conn", conn.ID())
	}

	s.notifyFriends(ctx, user.ID, domain.EventUserOnline, domain.UserOnlinePayload{
		UserID: user.ID,
		User:   user.Profile(),
	})

	account := user.Account()
	account.LastSeen = nil
	s.registry.Emit(conn, domain.EventAuthenticated, domain.AuthenticatedPayload{User: account})

	s.log.Info("User online", "user_id", user.ID, "conn", conn.ID())
	return user, nil
}

func (s *presenceService) Disconnect(ctx context.Context, conn realtime.Conn) {
	userID, ok := s.registry.Unregister(conn)
	if !ok {
		return
	}

	seen := s.now()
	if err := s.userRepo.UpdateLastSeen(ctx, userID, seen); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.log.Warn("Disconnected user no longer exists", "user_id", userID, "conn", conn.ID())
			return
		}
		s.log.Error("Failed to update last seen", "error", err, "user_id", userID)
	}

	s.notifyFriends(ctx, userID, domain.EventUserOffline, domain.UserOfflinePayload{
		UserID:   userID,
		LastSeen: seen,
	})

	s.log.Info("User offline", "user_id", userID, "conn", conn.ID())
}

func (s *presenceService) DisconnectAll(ctx context.Context) int {
	conns := s.registry.Connections()
	for _, conn := range conns {
		s.Disconnect(ctx, conn)
		realtime.CloseConn(conn, websocket.CloseGoingAway, "server shutdown")
	}
	return len(conns)
}

// notifyFriends delivers event to every online friend of userID. A failed
// friend lookup is logged and skipped; presence itself already changed.
func (s *presenceService) notifyFriends(ctx context.Context, userID uuid.UUID, event string, payload any) {
	friends, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		s.log.Error("Failed to load friends for presence", "error", err, "user_id", userID, "event", event)
		return
	}
	for _, f := range friends {
		s.registry.EmitToUser(f.ID, event, payload)
	}
}
