package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatroom/internal/domain"
	apperrors "chatroom/pkg/errors"
)

type userStore struct {
	s *state
}

func (r *userStore) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := r.s.byEmail[user.Email]; exists {
		return fmt.Errorf("%w: user with this email already exists", apperrors.ErrBadRequest)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	r.s.users[user.ID] = cloneUser(user)
	r.s.byEmail[user.Email] = user.ID
	return nil
}

func (r *userStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneUser(r.s.users[id]), nil
}

func (r *userStore) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[user.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.DisplayName = user.DisplayName
	u.AvatarURL = user.AvatarURL
	u.GoogleID = user.GoogleID
	u.UpdatedAt = r.s.now()
	user.UpdatedAt = u.UpdatedAt
	return nil
}

func (r *userStore) UpdateLastSeen(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.LastSeenAt = &at
	return nil
}

func (r *userStore) ListExcept(_ context.Context, id uuid.UUID) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.s.users))
	for uid, u := range r.s.users {
		if uid != id {
			users = append(users, cloneUser(u))
		}
	}
	sortUsers(users)
	return users, nil
}

func sortUsers(users []*domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName != users[j].DisplayName {
			return users[i].DisplayName < users[j].DisplayName
		}
		return users[i].ID.String() < users[j].ID.String()
	})
}
