package session

import (
	"log/slog"
	"time"

	"github.com/mind-engage/scholaroute/internal/allocation"
)

// Snapshot is the persisted form of a Session.
type Snapshot struct {
	Owner     string               `json:"owner"`
	ID        string               `json:"id"`
	RosterKey string               `json:"roster_key,omitempty"`
	Roster    *allocation.Roster   `json:"roster,omitempty"`
	Overrides allocation.Overrides `json:"overrides"`
	Result    *allocation.Result   `json:"result,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Owner:     s.owner,
		ID:        s.id,
		RosterKey: s.rosterKey,
		Roster:    s.roster,
		Overrides: s.overrides.Clone(),
		Result:    s.result,
		UpdatedAt: s.updatedAt,
	}
}

// FromSnapshot restores a session saved by Snapshot.
func FromSnapshot(snap Snapshot, log *slog.Logger) *Session {
	s := New(snap.Owner, log)
	if snap.ID != "" {
		s.id = snap.ID
	}
	s.rosterKey = snap.RosterKey
	s.roster = snap.Roster
	if snap.Overrides != nil {
		s.overrides = snap.Overrides.Clone()
	}
	s.result = snap.Result
	if !snap.UpdatedAt.IsZero() {
		s.updatedAt = snap.UpdatedAt
	}
	return s
}
