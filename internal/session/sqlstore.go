package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLStore keeps snapshots in the allocation_sessions table (see internal/db).
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(ctx context.Context, owner string) (Snapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot_json FROM allocation_sessions WHERE owner=$1`, owner).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode session %q: %w", owner, err)
	}
	return snap, nil
}

func (s *SQLStore) Save(ctx context.Context, snap Snapshot) error {
	buf, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO allocation_sessions (owner,id,snapshot_json,updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (owner) DO UPDATE SET id=EXCLUDED.id, snapshot_json=EXCLUDED.snapshot_json, updated_at=EXCLUDED.updated_at`,
		snap.Owner, snap.ID, string(buf), snap.UpdatedAt.Unix())
	return err
}

func (s *SQLStore) Delete(ctx context.Context, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM allocation_sessions WHERE owner=$1`, owner)
	return err
}
