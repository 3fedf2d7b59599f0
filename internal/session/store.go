package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no session exists for a call ID.
var ErrNotFound = errors.New("session not found")

// Store maps call IDs to their sessions. Turns within one call are
// sequential, so individual sessions need no locking; the map itself is
// shared across concurrently active calls and is guarded here.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*OrderSession

	idleTTL time.Duration
	now     func() time.Time
	onEvict func(*OrderSession)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithEvictHook registers a callback invoked for every evicted or deleted
// session, after it has been removed from the store.
func WithEvictHook(fn func(*OrderSession)) StoreOption {
	return func(s *Store) { s.onEvict = fn }
}

// NewStore creates a session store. Sessions idle longer than idleTTL are
// evicted by Sweep (or the Run loop).
func NewStore(idleTTL time.Duration, opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*OrderSession),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the call's session, creating it on first contact.
// The created flag is decided under the store's lock, so exactly one of
// any concurrent first requests for a call observes true.
func (s *Store) GetOrCreate(callID string) (*OrderSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[callID]; ok {
		return sess, false
	}
	sess := New(callID, s.now())
	s.sessions[callID] = sess
	return sess, true
}

// Get looks up a session without creating one.
func (s *Store) Get(callID string) (*OrderSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[callID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session, typically on call disconnect.
func (s *Store) Delete(callID string) {
	s.mu.Lock()
	sess, ok := s.sessions[callID]
	if ok {
		delete(s.sessions, callID)
	}
	s.mu.Unlock()
	if ok && s.onEvict != nil {
		s.onEvict(sess)
	}
}

// Touch records caller activity so the sweeper leaves the session alone.
// The write takes the session's own lock too, keeping it visible to
// concurrent Snapshot readers.
func (s *Store) Touch(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[callID]; ok {
		sess.mu.Lock()
		sess.LastActivity = s.now()
		sess.mu.Unlock()
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts every session idle longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var evicted []*OrderSession
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			evicted = append(evicted, sess)
		}
	}
	s.mu.Unlock()

	if s.onEvict != nil {
		for _, sess := range evicted {
			s.onEvict(sess)
		}
	}
	return len(evicted)
}

// Run sweeps periodically until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
