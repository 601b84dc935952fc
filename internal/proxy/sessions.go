package proxy

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session lifetimes.
const (
	DefaultIdleTTL  = time.Hour
	DefaultMaxAge   = 8 * time.Hour
	cleanupInterval = 10 * time.Minute
)

// Session is one logged-in user of the proxy.
type Session struct {
	ID       string
	Account  *Account
	Created  time.Time
	LastUsed time.Time
}

// Store keeps sessions in memory. A session expires after IdleTTL without use
// or MaxAge after login, whichever comes first.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithIdleTTL overrides the idle expiry.
func WithIdleTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.idle = ttl
		}
	}
}

// WithMaxAge overrides the hard expiry.
func WithMaxAge(age time.Duration) StoreOption {
	return func(s *Store) {
		if age > 0 {
			s.maxAge = age
		}
	}
}

// WithStoreClock replaces time.Now.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		idle:     DefaultIdleTTL,
		maxAge:   DefaultMaxAge,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Create stores account under a new random id.
func (s *Store) Create(account *Account) *Session {
	now := s.now()
	session := &Session{
		ID:       uuid.NewString(),
		Account:  account,
		Created:  now,
		LastUsed: now,
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// Get returns a live session and marks it used. Expired sessions are removed.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(session, now) {
		delete(s.sessions, id)
		return nil, false
	}
	session.LastUsed = now
	return session, true
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup drops every expired session and returns how many were dropped.
func (s *Store) Cleanup() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, session := range s.sessions {
		if s.expired(session, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run calls Cleanup every interval until ctx is done. A non-positive
// interval uses ten minutes.
func (s *Store) Run(ctx context.Context, interval time.Duration, onCleanup func(int)) {
	if interval <= 0 {
		interval = cleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 && onCleanup != nil {
				onCleanup(n)
			}
		}
	}
}

func (s *Store) expired(session *Session, now time.Time) bool {
	return now.Sub(session.LastUsed) > s.idle || now.Sub(session.Created) > s.maxAge
}
