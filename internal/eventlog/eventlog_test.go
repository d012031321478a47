package eventlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/scholaroute/internal/db"
)

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer h.Close()

	repo := NewEventRepo(h, "")
	require.NoError(t, repo.Record(ctx, TypeAllocationRun, "default", map[string]int{"students": 3}))
	require.NoError(t, repo.Record(ctx, TypeOverrideApplied, "S1", map[string]string{"course": "Law"}))

	events, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, TypeOverrideApplied, events[0].Type)
	assert.Equal(t, "S1", events[0].Key)
	assert.Equal(t, "local", events[0].SiteID)
	assert.JSONEq(t, `{"course":"Law"}`, string(events[0].Data))
	assert.JSONEq(t, `{"students":3}`, string(events[1].Data))
	assert.Greater(t, events[0].Seq, events[1].Seq)
}
