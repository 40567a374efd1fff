package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatroom/pkg/logger"
)

// Conn is a live client connection as seen by the registry.
type Conn interface {
	ID() string
	Send(payload []byte) error
}

type closer interface {
	Close(code int, reason string)
}

// Registry maps authenticated users to their single live connection. It is
// the only place that knows who is online.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]Conn
	byConn map[string]uuid.UUID
	log    logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		byUser: make(map[uuid.UUID]Conn),
		byConn: make(map[string]uuid.UUID),
		log:    log,
	}
}

// Register installs conn as the connection of userID. A previous connection
// of the same user is dropped from the registry without being notified and
// is returned so callers can decide what to do with it.
func (r *Registry) Register(userID uuid.UUID, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prevUser, ok := r.byConn[conn.ID()]; ok && prevUser != userID {
		if current, ok := r.byUser[prevUser]; ok && current.ID() == conn.ID() {
			delete(r.byUser, prevUser)
		}
	}

	superseded, had := r.byUser[userID]
	if had && superseded.ID() != conn.ID() {
		delete(r.byConn, superseded.ID())
	} else {
		superseded = nil
	}

	r.byUser[userID] = conn
	r.byConn[conn.ID()] = userID
	return superseded
}

// Unregister removes conn and returns the user it belonged to. It reports
// false when conn was never registered or has been superseded.
func (r *Registry) Unregister(conn Conn) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[conn.ID()]
	if !ok {
		return uuid.Nil, false
	}
	delete(r.byConn, conn.ID())

	if current, ok := r.byUser[userID]; ok && current.ID() == conn.ID() {
		delete(r.byUser, userID)
	}
	return userID, true
}

func (r *Registry) Lookup(userID uuid.UUID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[userID]
	return conn, ok
}

func (r *Registry) IsOnline(userID uuid.UUID) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// UserOf resolves the user authenticated on conn.
func (r *Registry) UserOf(conn Conn) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byConn[conn.ID()]
	return userID, ok
}

func (r *Registry) OnlineUserIDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Emit sends one event to conn. Failures are logged and returned, never
// retried.
func (r *Registry) Emit(conn Conn, event string, data any) error {
	payload, err := Encode(event, data)
	if err != nil {
		r.log.Error("Failed to encode event", "event", event, "error", err)
		return err
	}
	if err := conn.Send(payload); err != nil {
		r.log.Warn("Failed to deliver event", "event", event, "conn_id", conn.ID(), "error", err)
		return err
	}
	return nil
}

// EmitToUser delivers an event to userID if online. It reports whether the
// event was handed to a connection.
func (r *Registry) EmitToUser(userID uuid.UUID, event string, data any) bool {
	conn, ok := r.Lookup(userID)
	if !ok {
		return false
	}
	return r.Emit(conn, event, data) == nil
}

// Broadcast delivers an event to every registered connection and returns
// how many accepted it.
func (r *Registry) Broadcast(event string, data any) int {
	payload, err := Encode(event, data)
	if err != nil {
		r.log.Error("Failed to encode event", "event", event, "error", err)
		return 0
	}

	delivered := 0
	for _, conn := range r.snapshot() {
		if err := conn.Send(payload); err != nil {
			r.log.Warn("Failed to deliver event", "event", event, "conn_id", conn.ID(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Connections returns the currently registered connections.
func (r *Registry) Connections() []Conn {
	return r.snapshot()
}

// Close drops every registration and closes connections that support it.
// Nothing is announced; callers that need last-seen and offline events go
// through presence first.
func (r *Registry) Close() {
	conns := r.snapshot()

	r.mu.Lock()
	r.byUser = make(map[uuid.UUID]Conn)
	r.byConn = make(map[string]uuid.UUID)
	r.mu.Unlock()

	for _, conn := range conns {
		CloseConn(conn, websocket.CloseGoingAway, "server shutdown")
	}
}

// CloseConn closes conn if it supports closing.
func CloseConn(conn Conn, code int, reason string) {
	if c, ok := conn.(closer); ok {
		c.Close(code, reason)
	}
}

func (r *Registry) snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.byUser))
	for _, conn := range r.byUser {
		conns = append(conns, conn)
	}
	return conns
}
