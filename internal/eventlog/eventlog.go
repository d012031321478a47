// Package eventlog is an append-only audit trail of allocation runs and override changes.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types.
const (
	TypeAllocationRun     = "AllocationRun"
	TypeOverrideApplied   = "OverrideApplied"
	TypeOverridesReplaced = "OverridesReplaced"
	TypeSessionDiscarded  = "SessionDiscarded"
)

type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// Recorder is satisfied by *EventRepo.
type Recorder interface {
	Record(ctx context.Context, typ, key string, data any) error
}

type EventRepo struct {
	db     *sql.DB
	siteID string
	now    func() time.Time
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID, now: time.Now}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	if len(e.Data) == 0 {
		e.Data = json.RawMessage("{}")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, string(e.Data), r.now().Unix())
	return err
}

// Record marshals data and appends it as one event.
func (r *EventRepo) Record(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.Append(ctx, Event{Type: typ, Key: key, Data: buf})
}

// Recent returns up to limit events, newest first.
func (r *EventRepo) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
