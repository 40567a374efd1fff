package realtime

import (
	"sync/atomic"
	"time"
)

// Sequence hands out strictly increasing ids that track wall-clock
// milliseconds while the rate stays below one id per millisecond.
type Sequence struct {
	last atomic.Int64
	now  func() time.Time
}

func NewSequence() *Sequence {
	return newSequence(time.Now)
}

func newSequence(now func() time.Time) *Sequence {
	s := &Sequence{now: now}
	s.last.Store(now().UnixMilli() - 1)
	return s
}

func (s *Sequence) Next() int64 {
	for {
		prev := s.last.Load()
		next := s.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if s.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}
