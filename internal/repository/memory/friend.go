package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"chatroom/internal/domain"
	apperrors "chatroom/pkg/errors"
)

type friendStore struct {
	s *state
}

func (r *friendStore) CreateRequest(_ context.Context, fromUserID, toUserID uuid.UUID) (*domain.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if fromUserID == toUserID {
		return nil, apperrors.ErrBadRequest
	}
	if _, ok := r.s.users[fromUserID]; !ok {
		return nil, apperrors.ErrUserNotFound
	}
	if _, ok := r.s.users[toUserID]; !ok {
		return nil, apperrors.ErrUserNotFound
	}
	key := pairOf(fromUserID, toUserID)
	if _, ok := r.s.pending[key]; ok {
		return nil, apperrors.ErrDuplicateRequest
	}

	r.s.nextRequestID++
	req := &domain.FriendRequest{
		ID:         r.s.nextRequestID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     domain.FriendRequestPending,
		CreatedAt:  r.s.now(),
	}
	r.s.requests[req.ID] = req
	r.s.pending[key] = req.ID
	return cloneRequest(req), nil
}

func (r *friendStore) GetRequest(_ context.Context, id int64) (*domain.FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (r *friendStore) ListPending(_ context.Context, userID uuid.UUID) ([]*domain.FriendRequest, []*domain.FriendRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var received, sent []*domain.FriendRequest
	for _, id := range r.s.pending {
		req := r.s.requests[id]
		switch userID {
		case req.ToUserID:
			c := cloneRequest(req)
			p := r.s.users[req.FromUserID].Profile()
			c.FromUser = &p
			received = append(received, c)
		case req.FromUserID:
			c := cloneRequest(req)
			p := r.s.users[req.ToUserID].Profile()
			c.ToUser = &p
			sent = append(sent, c)
		}
	}
	newestFirst(received)
	newestFirst(sent)
	return received, sent, nil
}

func (r *friendStore) Respond(_ context.Context, id int64, actorID uuid.UUID, decision domain.FriendRequestStatus) (*domain.FriendRequest, *domain.Friendship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil, apperrors.ErrNotFound
	}
	if req.ToUserID != actorID {
		return nil, nil, apperrors.ErrForbidden
	}
	if req.Status.IsTerminal() {
		return nil, nil, apperrors.ErrInvalidTransition
	}

	now := r.s.now()
	req.Status = decision
	req.ActedAt = &now
	key := pairOf(req.FromUserID, req.ToUserID)
	delete(r.s.pending, key)

	var friendship *domain.Friendship
	if decision == domain.FriendRequestAccepted {
		f, exists := r.s.friendships[key]
		if !exists {
			f = domain.NewFriendship(req.FromUserID, req.ToUserID, now)
			r.s.friendships[key] = f
		}
		friendship = &f
	}
	return cloneRequest(req), friendship, nil
}

func (r *friendStore) AreFriends(_ context.Context, a, b uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.friendships[pairOf(a, b)]
	return ok, nil
}

func (r *friendStore) ListFriends(_ context.Context, userID uuid.UUID) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var friends []*domain.User
	for key := range r.s.friendships {
		var other uuid.UUID
		switch userID {
		case key.low:
			other = key.high
		case key.high:
			other = key.low
		default:
			continue
		}
		if u, ok := r.s.users[other]; ok {
			friends = append(friends, cloneUser(u))
		}
	}
	sortUsers(friends)
	return friends, nil
}

func newestFirst(reqs []*domain.FriendRequest) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].ID > reqs[j].ID })
}
