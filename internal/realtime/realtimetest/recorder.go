// Package realtimetest provides an in-memory connection for tests.
package realtimetest

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"chatroom/internal/realtime"
)

var ErrRecorderClosed = errors.New("recorder closed")

// Recorder is a realtime.Conn that keeps every frame it is sent.
type Recorder struct {
	id string

	mu     sync.Mutex
	frames []realtime.Frame
	closed bool
}

func NewRecorder() *Recorder {
	return &Recorder{id: uuid.NewString()}
}

func (r *Recorder) ID() string {
	return r.id
}

func (r *Recorder) Send(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRecorderClosed
	}
	f, err := realtime.Decode(payload)
	if err != nil {
		return err
	}
	r.frames = append(r.frames, f)
	return nil
}

// Fail makes every later Send return an error, like a dropped socket.
func (r *Recorder) Fail() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Close marks the recorder closed the way a server-side close would.
func (r *Recorder) Close(code int, reason string) {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Recorder) Frames() []realtime.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

func (r *Recorder) Events() []string {
	frames := r.Frames()
	names := make([]string, len(frames))
	for i, f := range frames {
		names[i] = f.Event
	}
	return names
}

// Count returns how many frames with the given event were received.
func (r *Recorder) Count(event string) int {
	n := 0
	for _, f := range r.Frames() {
		if f.Event == event {
			n++
		}
	}
	return n
}

// Last decodes the data of the most recent frame with the given event into
// v and reports whether one was found.
func (r *Recorder) Last(event string, v any) bool {
	frames := r.Frames()
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Event == event {
			if v != nil {
				_ = json.Unmarshal(frames[i].Data, v)
			}
			return true
		}
	}
	return false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}
