package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatroom/internal/config"
	"chatroom/internal/domain"
	"chatroom/internal/realtime"
	"chatroom/internal/realtime/realtimetest"
	"chatroom/internal/repository"
	"chatroom/internal/repository/memory"
	"chatroom/internal/service"
	"chatroom/pkg/logger"
)

type testEnv struct {
	ctx      context.Context
	repos    *repository.Repositories
	registry *realtime.Registry
	svc      *service.Services
}

func testConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{
			Secret: "test-secret",
			TTL:    time.Hour,
			Issuer: "chatroom",
		},
		Auth:      config.AuthConfig{Mode: config.AuthModeMock},
		RateLimit: config.RateLimitConfig{MessagesPerMinute: 1000},
	}
}

func newEnv(t *testing.T) *testEnv {
	return newEnvWithConfig(t, testConfig())
}

func newEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
	return newEnvWithRepos(t, cfg, memory.NewRepositories())
}

// newEnvWithRepos lets a test swap individual repositories before the
// services are built.
func newEnvWithRepos(t *testing.T, cfg *config.Config, repos *repository.Repositories) *testEnv {
	t.Helper()
	log := logger.Nop()
	registry := realtime.NewRegistry(log)
	return &testEnv{
		ctx:      context.Background(),
		repos:    repos,
		registry: registry,
		svc:      service.NewServices(repos, registry, cfg, log),
	}
}

func (e *testEnv) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{Email: name + "@mock.local", DisplayName: name}
	require.NoError(t, e.repos.User.Create(e.ctx, u))
	return u
}

func (e *testEnv) befriend(t *testing.T, a, b *domain.User) {
	t.Helper()
	req, err := e.svc.Friend.Create(e.ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = e.svc.Friend.Respond(e.ctx, req.ID, b.ID, domain.FriendRequestAccepted)
	require.NoError(t, err)
}

// online authenticates a fresh recorder for u and clears its greeting frames.
func (e *testEnv) online(t *testing.T, u *domain.User) *realtimetest.Recorder {
	t.Helper()
	conn := realtimetest.NewRecorder()
	_, err := e.svc.Presence.Authenticate(e.ctx, conn, u.ID)
	require.NoError(t, err)
	conn.Reset()
	return conn
}
