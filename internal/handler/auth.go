package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatroom/internal/config"
	"chatroom/internal/service"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

const authSuccessPage = `<html>
    <head><title>Login Successful</title></head>
    <body style="background:#222; color:white; text-align:center; padding-top:50px; font-family:sans-serif;">
        <h1>Login successful!</h1>
        <p>Returning to the application...</p>
    </body>
</html>
`

type AuthHandler struct {
	authService service.AuthService
	session     config.SessionConfig
	log         logger.Logger
}

func NewAuthHandler(authService service.AuthService, session config.SessionConfig, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		session:     session,
		log:         log,
	}
}

type DevLoginRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *AuthHandler) DevLogin(c *gin.Context) {
	var req DevLoginRequest
	// Empty body means the default display name.
	_ = c.ShouldBindJSON(&req)

	resp, err := h.authService.DevLogin(c.Request.Context(), req.DisplayName)
	if err != nil {
		h.log.Warn("Dev login failed", "error", err)
		fail(c, err)
		return
	}

	h.setSessionCookie(c, resp.Token, resp.ExpiresAt)
	h.log.Info("User logged in", "user_id", resp.User.ID, "email", resp.User.Email)

	c.JSON(http.StatusOK, gin.H{
		"user":       resp.User.Account(),
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt,
		"message":    "Login successful",
	})
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state := uuid.NewString()
	target, err := h.authService.GoogleAuthURL(state)
	if err != nil {
		fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, int(oauthStateTTL.Seconds()), "/auth/google", "", h.session.CookieSecure, true)
	c.Redirect(http.StatusFound, target)
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.String(http.StatusBadRequest, "Login failed: invalid state")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/auth/google", "", h.session.CookieSecure, true)

	resp, err := h.authService.LoginWithGoogle(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.log.Warn("Google callback failed", "error", err)
		c.String(apperrors.HTTPStatusFromError(err), "Login failed: "+apperrors.UserMessage(err))
		return
	}

	h.setSessionCookie(c, resp.Token, resp.ExpiresAt)

	q := url.Values{}
	q.Set("uid", resp.User.ID.String())
	q.Set("name", resp.User.DisplayName)
	if resp.User.AvatarURL != nil {
		q.Set("avatar", *resp.User.AvatarURL)
	}
	c.Redirect(http.StatusFound, "/auth/success?"+q.Encode())
}

func (h *AuthHandler) Success(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(authSuccessPage))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString("session_token")
	if err := h.authService.Logout(c.Request.Context(), token); err != nil &&
		!errors.Is(err, apperrors.ErrInvalidToken) && !errors.Is(err, apperrors.ErrSessionExpired) {
		fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, "", -1, "/", "", h.session.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, token, maxAge, "/", "", h.session.CookieSecure, true)
}
