// Package session holds per-caller allocation state: the uploaded roster, the
// manual overrides and the most recent result. Each Session serializes access
// to its own fields; sessions share nothing.
package session

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/scholaroute/internal/allocation"
)

var (
	ErrNoRoster       = errors.New("no uploaded data to override yet")
	ErrBlankStudentID = errors.New("student id is required")
)

type Session struct {
	mu        sync.Mutex
	id        string
	owner     string
	rosterKey string
	roster    *allocation.Roster
	overrides allocation.Overrides
	result    *allocation.Result
	updatedAt time.Time
	lastUsed  time.Time
	log       *slog.Logger
}

func New(owner string, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := time.Now()
	return &Session{
		id:        uuid.New().String(),
		owner:     owner,
		overrides: allocation.Overrides{},
		updatedAt: now,
		lastUsed:  now,
		log:       log.With(slog.String("owner", owner)),
	}
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Owner() string { return s.owner }

// Overrides returns a copy of the current override set.
func (s *Session) Overrides() allocation.Overrides {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overrides.Clone()
}

// LastResult is the most recent successful allocation, or nil. Callers must
// treat it as read-only.
func (s *Session) LastResult() *allocation.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) HasAllocations() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result.Len() > 0
}

func (s *Session) HasRoster() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster != nil
}

func (s *Session) RosterKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterKey
}

// Allocate runs a batch over roster with the session's overrides. The roster
// and result are stored only when the batch succeeds.
func (s *Session) Allocate(roster allocation.Roster, rosterKey string, catalog allocation.Catalog) (*allocation.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.run(roster, catalog, s.overrides)
	if err != nil {
		return nil, err
	}
	r := roster
	s.roster = &r
	s.rosterKey = rosterKey
	s.commit(res, s.overrides)
	return res, nil
}

// Reallocate reruns the stored roster against catalog.
func (s *Session) Reallocate(catalog allocation.Catalog) (*allocation.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roster == nil {
		return nil, ErrNoRoster
	}
	res, err := s.run(*s.roster, catalog, s.overrides)
	if err != nil {
		return nil, err
	}
	s.commit(res, s.overrides)
	return res, nil
}

// ApplyOverride adds one override and reallocates the stored roster. Nothing
// changes if the reallocation fails.
func (s *Session) ApplyOverride(catalog allocation.Catalog, studentID string, ov allocation.Override) (*allocation.Result, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrBlankStudentID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roster == nil {
		return nil, ErrNoRoster
	}
	next := s.overrides.Merge(allocation.Overrides{studentID: ov})
	res, err := s.run(*s.roster, catalog, next)
	if err != nil {
		return nil, err
	}
	s.commit(res, next)
	return res, nil
}

// ReplaceOverrides swaps in a full override set. With a stored roster the
// result is recomputed; without one the set waits for the next upload.
func (s *Session) ReplaceOverrides(catalog allocation.Catalog, ovs allocation.Overrides) (*allocation.Result, error) {
	next := allocation.NormalizeOverrides(ovs)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roster == nil {
		s.overrides = next
		s.updatedAt = time.Now()
		return nil, nil
	}
	res, err := s.run(*s.roster, catalog, next)
	if err != nil {
		return nil, err
	}
	s.commit(res, next)
	return res, nil
}

func (s *Session) run(roster allocation.Roster, catalog allocation.Catalog, ovs allocation.Overrides) (*allocation.Result, error) {
	return allocation.Allocate(roster, catalog, ovs, allocation.WithLogger(s.log))
}

func (s *Session) commit(res *allocation.Result, ovs allocation.Overrides) {
	s.result = res
	s.overrides = ovs
	s.updatedAt = time.Now()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
