package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatroom/internal/config"
	"chatroom/internal/domain"
	"chatroom/internal/middleware"
	"chatroom/internal/realtime"
	"chatroom/internal/service"
	apperrors "chatroom/pkg/errors"
	"chatroom/pkg/logger"
)

type WebSocketHandler struct {
	presence     service.PresenceService
	messages     service.MessageService
	typing       service.TypingService
	auth         service.AuthService
	registry     *realtime.Registry
	upgrader     websocket.Upgrader
	cookieName   string
	eventTimeout time.Duration
	sendBuffer   int
	log          logger.Logger
}

func NewWebSocketHandler(services *service.Services, registry *realtime.Registry, auth service.AuthService, cfg *config.Config, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		presence: services.Presence,
		messages: services.Message,
		typing:   services.Typing,
		auth:     auth,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.Realtime.AllowedOrigins),
		},
		cookieName:   cfg.Session.CookieName,
		eventTimeout: cfg.Realtime.EventTimeout,
		sendBuffer:   cfg.Realtime.SendBuffer,
		log:          log,
	}
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), any origin when "*" is configured, or an exact match.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// session carries what the upgrade request proved about the client.
type session struct {
	userID uuid.UUID
	err    error
}

func (h *WebSocketHandler) Handle(c *gin.Context) {
	sess := h.resolveSession(c)

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade connection", "error", err)
		return
	}

	conn := realtime.NewConnection(ws, sess.userID, h.sendBuffer)
	conn.Start()
	log := h.log.With("conn", conn.ID())
	log.Debug("Client connected", "remote", c.ClientIP())

	base := context.WithoutCancel(c.Request.Context())
	defer func() {
		ctx, cancel := context.WithTimeout(base, h.eventTimeout)
		defer cancel()
		h.presence.Disconnect(ctx, conn)
		conn.Close(websocket.CloseNormalClosure, "")
		log.Debug("Client disconnected")
	}()

	h.presence.Connect(conn)

	err = conn.ReadLoop(func(raw []byte) {
		h.dispatch(base, conn, sess, raw, log)
	})
	if err != nil {
		log.Debug("Read loop ended", "error", err)
	}
}

func (h *WebSocketHandler) resolveSession(c *gin.Context) session {
	token := middleware.SessionToken(c, h.cookieName)
	if token == "" {
		return session{err: apperrors.ErrUnauthenticated}
	}
	claims, err := h.auth.ValidateSession(c.Request.Context(), token)
	if err != nil {
		return session{err: err}
	}
	return session{userID: claims.UserID}
}

// dispatch handles one inbound frame. Errors go back to this connection
// only, and a panic is contained to the event that caused it.
func (h *WebSocketHandler) dispatch(base context.Context, conn *realtime.Connection, sess session, raw []byte, log logger.Logger) {
	ctx, cancel := context.WithTimeout(base, h.eventTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while handling event", "panic", r, "stack", string(debug.Stack()))
			h.emitError(conn, apperrors.ErrInternalServer)
		}
	}()

	frame, err := realtime.Decode(raw)
	if err != nil {
		log.Debug("Malformed frame", "error", err)
		h.emitError(conn, fmt.Errorf("%w: malformed frame", apperrors.ErrBadRequest))
		return
	}

	if err := h.handleEvent(ctx, conn, sess, frame); err != nil {
		if apperrors.HTTPStatusFromError(err) >= http.StatusInternalServerError {
			log.Error("Event failed", "event", frame.Event, "error", err)
		} else {
			log.Debug("Event rejected", "event", frame.Event, "error", err)
		}
		h.emitError(conn, err)
	}
}

func (h *WebSocketHandler) handleEvent(ctx context.Context, conn *realtime.Connection, sess session, frame realtime.Frame) error {
	switch frame.Event {
	case domain.EventAuthenticate:
		if sess.err != nil {
			return sess.err
		}
		_, err := h.presence.Authenticate(ctx, conn, sess.userID)
		return err

	case domain.EventMessageSend:
		var req domain.MessageSendRequest
		if err := frame.Bind(&req); err != nil {
			return badPayload(frame.Event, err)
		}
		_, err := h.messages.SendDirect(ctx, conn, req.RecipientID, req.Content)
		return err

	case domain.EventChatroomSend:
		var req domain.ChatroomSendRequest
		if err := frame.Bind(&req); err != nil {
			return badPayload(frame.Event, err)
		}
		_, err := h.messages.SendChatroom(ctx, conn, req.Content)
		return err

	case domain.EventTypingStart, domain.EventTypingStop:
		var req domain.TypingRequest
		if err := frame.Bind(&req); err != nil {
			return badPayload(frame.Event, err)
		}
		if frame.Event == domain.EventTypingStart {
			return h.typing.Start(ctx, conn, req.RecipientID)
		}
		return h.typing.Stop(ctx, conn, req.RecipientID)

	default:
		return fmt.Errorf("%w: unknown event %q", apperrors.ErrBadRequest, frame.Event)
	}
}

func badPayload(event string, err error) error {
	return fmt.Errorf("%w: invalid %s payload: %v", apperrors.ErrBadRequest, event, err)
}

func (h *WebSocketHandler) emitError(conn realtime.Conn, err error) {
	h.registry.Emit(conn, domain.EventError, domain.ErrorPayload{Message: apperrors.UserMessage(err)})
}
