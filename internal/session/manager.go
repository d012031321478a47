package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Manager owns one Session per owner. Sessions are created on first use and
// live until Discard or ExpireIdle removes them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    Store // optional
	log      *slog.Logger
	now      func() time.Time
}

func NewManager(store Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		sessions: map[string]*Session{},
		store:    store,
		log:      log,
		now:      time.Now,
	}
}

// Lookup returns the owner's session without creating one.
func (m *Manager) Lookup(ctx context.Context, owner string) (*Session, bool, error) {
	m.mu.RLock()
	s, ok := m.sessions[owner]
	m.mu.RUnlock()
	if ok {
		return s, true, nil
	}
	if m.store == nil {
		return nil, false, nil
	}
	snap, err := m.store.Load(ctx, owner)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m.adopt(FromSnapshot(snap, m.log)), true, nil
}

// Get returns the owner's session, restoring or creating it as needed.
func (m *Manager) Get(ctx context.Context, owner string) (*Session, error) {
	s, ok, err := m.Lookup(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		s = m.adopt(New(owner, m.log))
	}
	s.touch(m.now())
	return s, nil
}

// adopt registers s unless another goroutine won the race for the same owner.
func (m *Manager) adopt(s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[s.owner]; ok {
		return existing
	}
	m.sessions[s.owner] = s
	return s
}

// Save persists the session when a store is configured.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if m.store == nil {
		return nil
	}
	return m.store.Save(ctx, s.Snapshot())
}

// Discard drops the owner's session from memory and the store. It returns the
// removed session, if any was live, so callers can release its blobs.
func (m *Manager) Discard(ctx context.Context, owner string) (*Session, error) {
	m.mu.Lock()
	s := m.sessions[owner]
	delete(m.sessions, owner)
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Delete(ctx, owner); err != nil {
			return s, err
		}
	}
	return s, nil
}

// ExpireIdle drops in-memory sessions unused for longer than maxIdle and
// returns their owners. Persisted snapshots are left to the store's own TTL.
func (m *Manager) ExpireIdle(maxIdle time.Duration) []string {
	cutoff := m.now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []string
	for owner, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, owner)
			expired = append(expired, owner)
		}
	}
	if len(expired) > 0 {
		m.log.Info("expired idle sessions", slog.Int("count", len(expired)))
	}
	return expired
}

// Len is the number of live in-memory sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
