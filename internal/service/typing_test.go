package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatroom/internal/domain"
	"chatroom/internal/realtime/realtimetest"
	apperrors "chatroom/pkg/errors"
)

func TestTypingRelay(t *testing.T) {
	env := newEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	aConn := env.online(t, alice)
	bConn := env.online(t, bob)

	require.NoError(t, env.svc.Typing.Start(env.ctx, aConn, bob.ID))
	var start domain.TypingStartPayload
	require.True(t, bConn.Last(domain.EventTypingStart, &start))
	assert.Equal(t, alice.ID, start.UserID)
	assert.Equal(t, "alice", start.User.DisplayName)

	require.NoError(t, env.svc.Typing.Stop(env.ctx, aConn, bob.ID))
	var stop domain.TypingStopPayload
	require.True(t, bConn.Last(domain.EventTypingStop, &stop))
	assert.Equal(t, alice.ID, stop.UserID)

	assert.Empty(t, aConn.Frames())
}

func TestTypingOfflineRecipient(t *testing.T) {
	env := newEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	aConn := env.online(t, alice)

	assert.NoError(t, env.svc.Typing.Start(env.ctx, aConn, bob.ID))
	assert.NoError(t, env.svc.Typing.Stop(env.ctx, aConn, bob.ID))
	assert.Empty(t, aConn.Frames())
}

func TestTypingUnauthenticated(t *testing.T) {
	env := newEnv(t)
	bob := env.user(t, "bob")
	bConn := env.online(t, bob)

	anon := realtimetest.NewRecorder()
	assert.ErrorIs(t, env.svc.Typing.Start(env.ctx, anon, bob.ID), apperrors.ErrUnauthenticated)
	assert.ErrorIs(t, env.svc.Typing.Stop(env.ctx, anon, bob.ID), apperrors.ErrUnauthenticated)
	assert.Empty(t, bConn.Frames())
}
