package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/scholaroute/internal/allocation"
	"github.com/mind-engage/scholaroute/internal/db"
)

func TestSQLStorePersistsAcrossManagers(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer h.Close()
	store := NewSQLStore(h)

	_, err = store.Load(ctx, "officer")
	assert.ErrorIs(t, err, ErrNotFound)

	m1 := NewManager(store, nil)
	s, err := m1.Get(ctx, "officer")
	require.NoError(t, err)
	_, err = s.Allocate(testRoster(), "rosters/officer/x.csv", testCatalog())
	require.NoError(t, err)
	_, err = s.ApplyOverride(testCatalog(), "S1", allocation.Override{University: "X", Course: "Y"})
	require.NoError(t, err)
	require.NoError(t, m1.Save(ctx, s))
	require.NoError(t, m1.Save(ctx, s)) // upsert

	m2 := NewManager(store, nil)
	restored, ok, err := m2.Lookup(ctx, "officer")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s.ID(), restored.ID())
	assert.Equal(t, "rosters/officer/x.csv", restored.RosterKey())
	assert.True(t, restored.HasAllocations())
	assert.Equal(t, s.LastResult().Rows, restored.LastResult().Rows)

	_, err = m2.Discard(ctx, "officer")
	require.NoError(t, err)
	_, err = store.Load(ctx, "officer")
	assert.ErrorIs(t, err, ErrNotFound)
}
