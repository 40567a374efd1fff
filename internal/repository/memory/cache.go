package memory

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	value     int64
	expiresAt time.Time
}

// RateLimitStore is a fixed-window counter with the same semantics as the
// Redis one.
type RateLimitStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{counters: make(map[string]*counter), now: time.Now}
}

func (s *RateLimitStore) CheckLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.liveLocked(key)
	if c == nil {
		return true, nil
	}
	return c.value < int64(limit), nil
}

func (s *RateLimitStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.liveLocked(key)
	if c == nil {
		c = &counter{expiresAt: s.now().Add(window)}
		s.counters[key] = c
	}
	c.value++
	return c.value, nil
}

func (s *RateLimitStore) liveLocked(key string) *counter {
	c, ok := s.counters[key]
	if !ok {
		return nil
	}
	if !s.now().Before(c.expiresAt) {
		delete(s.counters, key)
		return nil
	}
	return c
}

type SessionStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *SessionStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	s.revoked[tokenID] = s.now().Add(ttl)
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
