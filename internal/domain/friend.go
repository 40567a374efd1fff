package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

// IsTerminal reports whether no further transition is allowed.
func (s FriendRequestStatus) IsTerminal() bool {
	return s == FriendRequestAccepted || s == FriendRequestDeclined
}

// ParseFriendRequestDecision accepts only the two terminal states a
// recipient may choose.
func ParseFriendRequestDecision(action string) (FriendRequestStatus, bool) {
	switch FriendRequestStatus(action) {
	case FriendRequestAccepted:
		return FriendRequestAccepted, true
	case FriendRequestDeclined:
		return FriendRequestDeclined, true
	default:
		return "", false
	}
}

type FriendRequest struct {
	ID         int64               `json:"id"`
	FromUserID uuid.UUID           `json:"from_user_id"`
	ToUserID   uuid.UUID           `json:"to_user_id"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	ActedAt    *time.Time          `json:"acted_at,omitempty"`
	FromUser   *UserProfile        `json:"from_user,omitempty"`
	ToUser     *UserProfile        `json:"to_user,omitempty"`
}

type Friendship struct {
	UserLowID  uuid.UUID `json:"user_low_id"`
	UserHighID uuid.UUID `json:"user_high_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderedPair returns the two ids in a stable order so that an unordered
// pair of users always maps to the same key.
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

func NewFriendship(a, b uuid.UUID, at time.Time) Friendship {
	low, high := OrderedPair(a, b)
	return Friendship{UserLowID: low, UserHighID: high, CreatedAt: at}
}
