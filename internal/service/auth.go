package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"chatroom/internal/config"
	"chatroom/internal/domain"
	"chatroom/internal/repository"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/jwt"
	"chatroom/pkg/logger"
)

const (
	mockEmailDomain    = "mock.local"
	defaultDisplayName = "Anonymous"
	maxDisplayName     = 100
)

type AuthService interface {
	// DevLogin signs in (creating if needed) a mock user by display name.
	// Only available when AUTH_MODE=mock.
	DevLogin(ctx context.Context, displayName string) (*LoginResponse, error)
	GoogleAuthURL(state string) (string, error)
	LoginWithGoogle(ctx context.Context, code string) (*LoginResponse, error)
	// ValidateSession checks a session token. It does not load the user.
	ValidateSession(ctx context.Context, token string) (*jwt.Claims, error)
	Logout(ctx context.Context, token string) error
}

type LoginResponse struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	provider    IdentityProvider
	mode        string
	sessionCfg  config.SessionConfig
	log         logger.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	provider IdentityProvider,
	mode string,
	sessionCfg config.SessionConfig,
	log logger.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		provider:    provider,
		mode:        mode,
		sessionCfg:  sessionCfg,
		log:         log,
	}
}

func (s *authService) DevLogin(ctx context.Context, displayName string) (*LoginResponse, error) {
	if s.mode != config.AuthModeMock {
		return nil, fmt.Errorf("%w: Mock login disabled", apperrors.ErrForbidden)
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = defaultDisplayName
	}
	if len(displayName) > maxDisplayName {
		return nil, fmt.Errorf("%w: display name is too long (max %d characters)", apperrors.ErrBadRequest, maxDisplayName)
	}

	email := fmt.Sprintf("%s@%s", strings.ReplaceAll(strings.ToLower(displayName), " ", "_"), mockEmailDomain)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		avatar := "https://ui-avatars.com/api/?name=" + url.QueryEscape(displayName) + "&background=random"
		user = &domain.User{
			Email:       email,
			DisplayName: displayName,
			AvatarURL:   &avatar,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.log.Info("Mock user created", "user_id", user.ID, "email", email)
	} else if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) GoogleAuthURL(state string) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("%w: Google login disabled", apperrors.ErrForbidden)
	}
	return s.provider.AuthCodeURL(state), nil
}

func (s *authService) LoginWithGoogle(ctx context.Context, code string) (*LoginResponse, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: Google login disabled", apperrors.ErrForbidden)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", apperrors.ErrBadRequest)
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.log.Warn("Google login failed", "error", err)
		return nil, fmt.Errorf("%w: google login failed", apperrors.ErrUnauthenticated)
	}

	user, err := s.userRepo.GetByEmail(ctx, identity.Email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		user = &domain.User{
			Email:       identity.Email,
			DisplayName: identity.Name,
		}
		if user.DisplayName == "" {
			user.DisplayName = identity.Email
		}
		if identity.AvatarURL != "" {
			user.AvatarURL = &identity.AvatarURL
		}
		if identity.Subject != "" {
			user.GoogleID = &identity.Subject
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.log.Info("Google user registered", "user_id", user.ID)
	case err != nil:
		return nil, err
	default:
		changed := false
		if identity.AvatarURL != "" {
			user.AvatarURL = &identity.AvatarURL
			changed = true
		}
		if identity.Subject != "" && user.GoogleID == nil {
			user.GoogleID = &identity.Subject
			changed = true
		}
		if changed {
			if err := s.userRepo.Update(ctx, user); err != nil {
				s.log.Warn("Failed to refresh google profile", "error", err, "user_id", user.ID)
			}
		}
	}

	return s.issue(user)
}

func (s *authService) issue(user *domain.User) (*LoginResponse, error) {
	token, claims, err := jwt.GenerateSessionToken(user.ID, user.Email, s.sessionCfg.Secret, s.sessionCfg.Issuer, s.sessionCfg.TTL)
	if err != nil {
		s.log.Error("Failed to generate session token", "error", err)
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	return &LoginResponse{
		User:      user,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *authService) ValidateSession(ctx context.Context, token string) (*jwt.Claims, error) {
	if token == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	claims, err := jwt.ValidateToken(token, s.sessionCfg.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	revoked, err := s.sessionRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session revocation: %w", err)
	}
	if revoked {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.ValidateSession(ctx, token)
	if err != nil {
		return err
	}
	if err := s.sessionRepo.Revoke(ctx, claims.ID, claims.Remaining()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.log.Info("Session revoked", "user_id", claims.UserID)
	return nil
}
