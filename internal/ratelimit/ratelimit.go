package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Store keeps one token bucket per user. Entries age out so the map stays
// bounded regardless of how many users pass through.
type Store struct {
	mu       sync.Mutex
	limiters map[int64]*entry
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	maxSize  int
	now      func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithTTL overrides how long idle entries survive.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithMaxSize caps the number of tracked users.
func WithMaxSize(n int) Option {
	return func(s *Store) { s.maxSize = n }
}

// withClock injects a fake clock for tests.
func withClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds a store allowing burst actions, refilling one token per
// interval.
func New(interval time.Duration, burst int, opts ...Option) *Store {
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	if burst < 1 {
		burst = 1
	}
	s := &Store{
		limiters: make(map[int64]*entry),
		limit:    rate.Every(interval),
		burst:    burst,
		ttl:      10 * time.Minute,
		maxSize:  4096,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow reports whether the user may act now, consuming a token if so.
func (s *Store) Allow(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.limiters[userID]
	if !ok {
		s.evictLocked(now)
		e = &entry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[userID] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Len returns the number of tracked users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// evictLocked drops idle entries; if the map is still at capacity the oldest
// entry goes.
func (s *Store) evictLocked(now time.Time) {
	for id, e := range s.limiters {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.limiters, id)
		}
	}
	if len(s.limiters) < s.maxSize {
		return
	}
	var oldestID int64
	var oldest time.Time
	first := true
	for id, e := range s.limiters {
		if first || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
			first = false
		}
	}
	if !first {
		delete(s.limiters, oldestID)
	}
}
