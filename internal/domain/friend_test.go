package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrderedPairIsSymmetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	l1, h1 := OrderedPair(a, b)
	l2, h2 := OrderedPair(b, a)

	assert.Equal(t, l1, l2)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, l1, h1)
}

func TestNewFriendshipOrdersUsers(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	now := time.Now()

	assert.Equal(t, NewFriendship(a, b, now), NewFriendship(b, a, now))
}

func TestParseFriendRequestDecision(t *testing.T) {
	tests := []struct {
		action string
		want   FriendRequestStatus
		ok     bool
	}{
		{"accepted", FriendRequestAccepted, true},
		{"declined", FriendRequestDeclined, true},
		{"pending", "", false},
		{"accept", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseFriendRequestDecision(tt.action)
		assert.Equal(t, tt.ok, ok, tt.action)
		assert.Equal(t, tt.want, got, tt.action)
	}
}

func TestFriendRequestStatusIsTerminal(t *testing.T) {
	assert.False(t, FriendRequestPending.IsTerminal())
	assert.True(t, FriendRequestAccepted.IsTerminal())
	assert.True(t, FriendRequestDeclined.IsTerminal())
}

func TestConversationOther(t *testing.T) {
	low, high := OrderedPair(uuid.New(), uuid.New())
	c := Conversation{UserLowID: low, UserHighID: high}

	assert.Equal(t, high, c.Other(low))
	assert.Equal(t, low, c.Other(high))
	assert.True(t, c.HasParticipant(low))
	assert.False(t, c.HasParticipant(uuid.New()))
}
