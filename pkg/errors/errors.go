package errors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrBadRequest          = errors.New("bad request")
	ErrInternalServer      = errors.New("internal server error")
	ErrUserNotFound        = errors.New("user not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrEmptyContent        = errors.New("empty content")
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrNotFriends          = errors.New("not friends")
	ErrAlreadyFriends      = errors.New("already friends")
	ErrDuplicateRequest    = errors.New("duplicate friend request")
	ErrRateLimited         = errors.New("rate limit exceeded")
)

type APIError struct {
	Message string `json:"error"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(message string, code int) *APIError {
	return &APIError{
		Message: message,
		Code:    code,
	}
}

// FromError builds the API error returned to HTTP callers.
func FromError(err error) *APIError {
	return NewAPIError(UserMessage(err), HTTPStatusFromError(err))
}

func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotFriends):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyFriends), errors.Is(err, ErrDuplicateRequest), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrEmptyContent), errors.Is(err, ErrInvalidParticipants):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the text shown to the client. Anything outside the taxonomy
// is reported as an internal error so storage details never leak.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "Not authenticated"
	case errors.Is(err, ErrSessionExpired):
		return "Session expired. Please login again."
	case errors.Is(err, ErrInvalidToken):
		return "Invalid or expired session"
	case errors.Is(err, ErrUserNotFound):
		return "User not found"
	case errors.Is(err, ErrNotFound):
		return detail(err, ErrNotFound, "Not found")
	case errors.Is(err, ErrForbidden):
		return detail(err, ErrForbidden, "Forbidden")
	case errors.Is(err, ErrInvalidTransition):
		return "Friend request has already been answered"
	case errors.Is(err, ErrEmptyContent):
		return "Message content cannot be empty"
	case errors.Is(err, ErrInvalidParticipants):
		return "A conversation needs two different users"
	case errors.Is(err, ErrNotFriends):
		return "You can only message friends"
	case errors.Is(err, ErrAlreadyFriends):
		return "Already friends"
	case errors.Is(err, ErrDuplicateRequest):
		return "Friend request already pending"
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded"
	case errors.Is(err, ErrBadRequest):
		return detail(err, ErrBadRequest, "Bad request")
	default:
		return "Internal server error"
	}
}

// detail returns the text added after "<sentinel>: " when the error was
// wrapped as fmt.Errorf("%w: text", sentinel), or fallback otherwise.
func detail(err, sentinel error, fallback string) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		if d := msg[i+len(prefix):]; d != "" {
			return d
		}
	}
	return fallback
}
