package realtime_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatroom/internal/realtime"
	"chatroom/internal/realtime/realtimetest"
	"chatroom/pkg/logger"
)

func newRegistry() *realtime.Registry {
	return realtime.NewRegistry(logger.Nop())
}

func TestRegisterAndUnregister(t *testing.T) {
	reg := newRegistry()
	user := uuid.New()
	conn := realtimetest.NewRecorder()

	assert.Nil(t, reg.Register(user, conn))
	assert.True(t, reg.IsOnline(user))

	got, ok := reg.UserOf(conn)
	require.True(t, ok)
	assert.Equal(t, user, got)

	userID, ok := reg.Unregister(conn)
	require.True(t, ok)
	assert.Equal(t, user, userID)
	assert.False(t, reg.IsOnline(user))
	assert.Equal(t, 0, reg.Count())
}

func TestUnregisterUnknownConnection(t *testing.T) {
	reg := newRegistry()

	userID, ok := reg.Unregister(realtimetest.NewRecorder())
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, userID)
}

func TestRegisterSupersedesPreviousConnection(t *testing.T) {
	reg := newRegistry()
	user := uuid.New()
	first := realtimetest.NewRecorder()
	second := realtimetest.NewRecorder()

	reg.Register(user, first)
	superseded := reg.Register(user, second)
	require.NotNil(t, superseded)
	assert.Equal(t, first.ID(), superseded.ID())

	conn, ok := reg.Lookup(user)
	require.True(t, ok)
	assert.Equal(t, second.ID(), conn.ID())

	// the superseded handle gets no notice
	assert.Empty(t, first.Frames())

	// and its later disconnect leaves the newer mapping alone
	_, ok = reg.Unregister(first)
	assert.False(t, ok)
	assert.True(t, reg.IsOnline(user))
	assert.Equal(t, 1, reg.Count())
}

func TestRegisterSameConnectionTwice(t *testing.T) {
	reg := newRegistry()
	user := uuid.New()
	conn := realtimetest.NewRecorder()

	reg.Register(user, conn)
	assert.Nil(t, reg.Register(user, conn))
	assert.Equal(t, 1, reg.Count())
}

func TestRegisterMovesConnectionToAnotherUser(t *testing.T) {
	reg := newRegistry()
	alice, bob := uuid.New(), uuid.New()
	conn := realtimetest.NewRecorder()

	reg.Register(alice, conn)
	reg.Register(bob, conn)

	assert.False(t, reg.IsOnline(alice))
	assert.True(t, reg.IsOnline(bob))
}

func TestEmitToUser(t *testing.T) {
	reg := newRegistry()
	user := uuid.New()
	conn := realtimetest.NewRecorder()
	reg.Register(user, conn)

	assert.True(t, reg.EmitToUser(user, "ping", map[string]string{"a": "b"}))
	assert.False(t, reg.EmitToUser(uuid.New(), "ping", nil))

	var data map[string]string
	require.True(t, conn.Last("ping", &data))
	assert.Equal(t, "b", data["a"])
}

func TestEmitToDroppedConnectionIsReportedNotRetried(t *testing.T) {
	reg := newRegistry()
	user := uuid.New()
	conn := realtimetest.NewRecorder()
	reg.Register(user, conn)
	conn.Fail()

	assert.False(t, reg.EmitToUser(user, "ping", nil))
	assert.Empty(t, conn.Frames())
}

func TestBroadcastSkipsFailingConnections(t *testing.T) {
	reg := newRegistry()
	conns := make([]*realtimetest.Recorder, 3)
	for i := range conns {
		conns[i] = realtimetest.NewRecorder()
		reg.Register(uuid.New(), conns[i])
	}
	conns[1].Fail()

	assert.Equal(t, 2, reg.Broadcast("hello", nil))
	assert.Equal(t, 1, conns[0].Count("hello"))
	assert.Equal(t, 0, conns[1].Count("hello"))
	assert.Equal(t, 1, conns[2].Count("hello"))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := newRegistry()
	users := make([]uuid.UUID, 50)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(user uuid.UUID) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				conn := realtimetest.NewRecorder()
				reg.Register(user, conn)
				reg.IsOnline(user)
				reg.Broadcast("tick", nil)
				if i%2 == 0 {
					reg.Unregister(conn)
				}
			}
		}(user)
	}
	wg.Wait()

	// every user ends on an odd iteration that stays registered
	assert.Equal(t, len(users), reg.Count())
	for _, user := range users {
		conn, ok := reg.Lookup(user)
		require.True(t, ok)
		got, ok := reg.UserOf(conn)
		require.True(t, ok)
		assert.Equal(t, user, got)
	}
}

func TestCloseClearsRegistry(t *testing.T) {
	reg := newRegistry()
	a, b := realtimetest.NewRecorder(), realtimetest.NewRecorder()
	reg.Register(uuid.New(), a)
	reg.Register(uuid.New(), b)
	assert.Len(t, reg.Connections(), 2)

	reg.Close()
	assert.Equal(t, 0, reg.Count())
	assert.Empty(t, reg.OnlineUserIDs())
	assert.Empty(t, reg.Connections())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}
