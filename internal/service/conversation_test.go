package service_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chatroom/pkg/errors"
)

func TestGetOrCreateDirectConcurrent(t *testing.T) {
	env := newEnv(t)
	a := env.user(t, "a")
	b := env.user(t, "b")

	const callers = 16
	ids := make([]uuid.UUID, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, y := a.ID, b.ID
			if i%2 == 1 {
				x, y = y, x
			}
			conv, err := env.svc.Conversation.GetOrCreateDirect(env.ctx, x, y)
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestGetOrCreateDirectSameUser(t *testing.T) {
	env := newEnv(t)
	a := env.user(t, "a")

	_, err := env.svc.Conversation.GetOrCreateDirect(env.ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParticipants)
}

func TestConversationAccessIsParticipantOnly(t *testing.T) {
	env := newEnv(t)
	a := env.user(t, "a")
	b := env.user(t, "b")
	c := env.user(t, "c")

	conv, err := env.svc.Conversation.GetOrCreateDirect(env.ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = env.svc.Conversation.ListMessages(env.ctx, c.ID, conv.ID, 10, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = env.svc.Conversation.MarkRead(env.ctx, c.ID, conv.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = env.svc.Conversation.ListMessages(env.ctx, a.ID, uuid.New(), 10, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMarkRead(t *testing.T) {
	env := newEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	env.befriend(t, alice, bob)
	aConn := env.online(t, alice)

	var convID uuid.UUID
	for _, text := range []string{"one", "two"} {
		msg, err := env.svc.Message.SendDirect(env.ctx, aConn, bob.ID, text)
		require.NoError(t, err)
		convID = msg.ConversationID
	}

	marked, err := env.svc.Conversation.MarkRead(env.ctx, bob.ID, convID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	convs, err := env.svc.Conversation.List(env.ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Zero(t, convs[0].UnreadCount)
	assert.Equal(t, "two", convs[0].LastMessage.Content)
}
