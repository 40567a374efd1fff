package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatroom/internal/config"
	"chatroom/internal/repository/memory"
	"chatroom/internal/service"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/jwt"
	"chatroom/pkg/logger"
)

type fakeProvider struct {
	identity *service.ExternalIdentity
	err      error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.test/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*service.ExternalIdentity, error) {
	if p.err != nil {
		return nil, p.err
	}
	id := *p.identity
	return &id, nil
}

func sessionConfig() config.SessionConfig {
	return config.SessionConfig{Secret: "test-secret", TTL: time.Hour, Issuer: "chatroom"}
}

func TestDevLogin(t *testing.T) {
	repos := memory.NewRepositories()
	auth := service.NewAuthService(repos.User, repos.Session, nil, config.AuthModeMock, sessionConfig(), logger.Nop())
	ctx := context.Background()

	first, err := auth.DevLogin(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "jane_doe@mock.local", first.User.Email)
	assert.Equal(t, "Jane Doe", first.User.DisplayName)
	require.NotNil(t, first.User.AvatarURL)
	assert.Contains(t, *first.User.AvatarURL, "ui-avatars.com")
	assert.WithinDuration(t, time.Now().Add(time.Hour), first.ExpiresAt, 5*time.Second)

	second, err := auth.DevLogin(ctx, "  Jane Doe ")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	anon, err := auth.DevLogin(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", anon.User.DisplayName)

	claims, err := auth.ValidateSession(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, claims.UserID)
}

func TestDevLoginDisabledOutsideMockMode(t *testing.T) {
	repos := memory.NewRepositories()
	auth := service.NewAuthService(repos.User, repos.Session, &fakeProvider{}, config.AuthModeGoogle, sessionConfig(), logger.Nop())

	_, err := auth.DevLogin(context.Background(), "bob")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestLogoutRevokesSession(t *testing.T) {
	repos := memory.NewRepositories()
	auth := service.NewAuthService(repos.User, repos.Session, nil, config.AuthModeMock, sessionConfig(), logger.Nop())
	ctx := context.Background()

	login, err := auth.DevLogin(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, login.Token))

	_, err = auth.ValidateSession(ctx, login.Token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	assert.ErrorIs(t, auth.Logout(ctx, login.Token), apperrors.ErrInvalidToken)
}

func TestValidateSession(t *testing.T) {
	repos := memory.NewRepositories()
	cfg := sessionConfig()
	auth := service.NewAuthService(repos.User, repos.Session, nil, config.AuthModeMock, cfg, logger.Nop())
	ctx := context.Background()

	_, err := auth.ValidateSession(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = auth.ValidateSession(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	login, err := auth.DevLogin(ctx, "alice")
	require.NoError(t, err)
	expired, _, err := jwt.GenerateSessionToken(login.User.ID, login.User.Email, cfg.Secret, cfg.Issuer, -time.Minute)
	require.NoError(t, err)
	_, err = auth.ValidateSession(ctx, expired)
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestLoginWithGoogle(t *testing.T) {
	repos := memory.NewRepositories()
	provider := &fakeProvider{identity: &service.ExternalIdentity{
		Subject:   "google-123",
		Email:     "carol@example.com",
		Name:      "Carol",
		AvatarURL: "https://example.com/a.png",
	}}
	auth := service.NewAuthService(repos.User, repos.Session, provider, config.AuthModeGoogle, sessionConfig(), logger.Nop())
	ctx := context.Background()

	url, err := auth.GoogleAuthURL("xyz")
	require.NoError(t, err)
	assert.Contains(t, url, "state=xyz")

	first, err := auth.LoginWithGoogle(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, "Carol", first.User.DisplayName)

	provider.identity.AvatarURL = "https://example.com/b.png"
	second, err := auth.LoginWithGoogle(ctx, "code")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	stored, err := repos.User.GetByID(ctx, first.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AvatarURL)
	assert.Equal(t, "https://example.com/b.png", *stored.AvatarURL)

	_, err = auth.LoginWithGoogle(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	provider.err = errors.New("bad code")
	_, err = auth.LoginWithGoogle(ctx, "code")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestGoogleDisabledInMockMode(t *testing.T) {
	repos := memory.NewRepositories()
	auth := service.NewAuthService(repos.User, repos.Session, nil, config.AuthModeMock, sessionConfig(), logger.Nop())

	_, err := auth.GoogleAuthURL("state")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = auth.LoginWithGoogle(context.Background(), "code")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
