// Package memory keeps every repository in process memory. It backs
// STORE_DRIVER=memory and the service and handler tests.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"chatroom/internal/domain"
	"chatroom/internal/repository"
)

type pairKey struct {
	low, high uuid.UUID
}

func pairOf(a, b uuid.UUID) pairKey {
	low, high := domain.OrderedPair(a, b)
	return pairKey{low: low, high: high}
}

// state is shared by the user, friend and conversation stores so that joins
// (sender profiles, friend lists) see one consistent view.
type state struct {
	mu sync.RWMutex

	users   map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID

	requests      map[int64]*domain.FriendRequest
	pending       map[pairKey]int64
	friendships   map[pairKey]domain.Friendship
	nextRequestID int64

	conversations map[uuid.UUID]*domain.Conversation
	convByPair    map[pairKey]uuid.UUID
	messages      map[uuid.UUID][]*domain.Message
	nextMessageID int64

	now func() time.Time
}

func newState() *state {
	return &state{
		users:         make(map[uuid.UUID]*domain.User),
		byEmail:       make(map[string]uuid.UUID),
		requests:      make(map[int64]*domain.FriendRequest),
		pending:       make(map[pairKey]int64),
		friendships:   make(map[pairKey]domain.Friendship),
		conversations: make(map[uuid.UUID]*domain.Conversation),
		convByPair:    make(map[pairKey]uuid.UUID),
		messages:      make(map[uuid.UUID][]*domain.Message),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// NewRepositories returns a full set of in-memory repositories.
func NewRepositories() *repository.Repositories {
	s := newState()
	return &repository.Repositories{
		User:         &userStore{s: s},
		Friend:       &friendStore{s: s},
		Conversation: &conversationStore{s: s},
		RateLimit:    NewRateLimitStore(),
		Session:      NewSessionStore(),
	}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneRequest(r *domain.FriendRequest) *domain.FriendRequest {
	c := *r
	c.FromUser, c.ToUser = nil, nil
	return &c
}

func cloneMessage(m *domain.Message) *domain.Message {
	c := *m
	return &c
}

var (
	_ repository.UserRepository         = (*userStore)(nil)
	_ repository.FriendRepository       = (*friendStore)(nil)
	_ repository.ConversationRepository = (*conversationStore)(nil)
	_ repository.RateLimitRepository    = (*RateLimitStore)(nil)
	_ repository.SessionRepository      = (*SessionStore)(nil)
)
