package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/scholaroute/internal/allocation"
)

func testRoster() allocation.Roster {
	return allocation.Roster{
		Columns: []string{"Student ID", "FirstName", "LastName", "Gender", "Section", "English", "Choice 1"},
		Rows: [][]string{
			{"S1", "Ada", "Obi", "F", "A", "40", "Law"},
			{"S2", "Bayo", "Ade", "M", "B", "90", "Law"},
		},
	}
}

func testCatalog() allocation.Catalog {
	return allocation.Catalog{
		{Name: "Unilag", Courses: []allocation.Course{
			{Name: "Law", MinScores: map[string]float64{"aggregate": 60}},
		}},
	}
}

func TestSessionAllocateAndOverride(t *testing.T) {
	s := New("officer", nil)
	assert.False(t, s.HasAllocations())

	_, err := s.ApplyOverride(testCatalog(), "S1", allocation.Override{University: "X", Course: "Y"})
	assert.ErrorIs(t, err, ErrNoRoster)

	res, err := s.Allocate(testRoster(), "rosters/officer/a.csv", testCatalog())
	require.NoError(t, err)
	assert.Equal(t, allocation.NotAllocatedUniversity, res.Rows[0].University)
	assert.Equal(t, "Law", res.Rows[1].Course)
	assert.True(t, s.HasAllocations())
	assert.Equal(t, "rosters/officer/a.csv", s.RosterKey())

	res, err = s.ApplyOverride(testCatalog(), " S1 ", allocation.Override{University: " X University ", Course: "Biology "})
	require.NoError(t, err)
	assert.Equal(t, "X University", res.Rows[0].University)
	assert.Equal(t, "Biology", res.Rows[0].Course)

	_, err = s.ApplyOverride(testCatalog(), "S2", allocation.Override{University: "Z", Course: "Music"})
	require.NoError(t, err)
	assert.Equal(t, allocation.Overrides{
		"S1": {University: "X University", Course: "Biology"},
		"S2": {University: "Z", Course: "Music"},
	}, s.Overrides())

	_, err = s.ApplyOverride(testCatalog(), "  ", allocation.Override{})
	assert.ErrorIs(t, err, ErrBlankStudentID)
}

func TestSessionFailedAllocationKeepsPreviousState(t *testing.T) {
	s := New("officer", nil)
	first, err := s.Allocate(testRoster(), "k1", testCatalog())
	require.NoError(t, err)

	bad := allocation.Roster{Columns: []string{"English"}, Rows: [][]string{{"1"}}}
	_, err = s.Allocate(bad, "k2", testCatalog())
	assert.ErrorIs(t, err, allocation.ErrMissingColumns)

	assert.Same(t, first, s.LastResult())
	assert.Equal(t, "k1", s.RosterKey())
}

func TestSessionReplaceOverrides(t *testing.T) {
	s := New("officer", nil)
	res, err := s.ReplaceOverrides(testCatalog(), allocation.Overrides{"S2": {University: "Q", Course: "R"}})
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = s.Allocate(testRoster(), "k", testCatalog())
	require.NoError(t, err)
	assert.Equal(t, "Q", res.Rows[1].University)

	res, err = s.ReplaceOverrides(testCatalog(), allocation.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "Unilag", res.Rows[1].University)
	assert.Empty(t, s.Overrides())
}

func TestSessionReallocate(t *testing.T) {
	s := New("officer", nil)
	_, err := s.Reallocate(testCatalog())
	assert.ErrorIs(t, err, ErrNoRoster)

	_, err = s.Allocate(testRoster(), "k", testCatalog())
	require.NoError(t, err)

	open := allocation.Catalog{{Name: "Open", Courses: []allocation.Course{{Name: "Any"}}}}
	res, err := s.Reallocate(open)
	require.NoError(t, err)
	for _, row := range res.Rows {
		assert.Equal(t, "Any", row.Course)
	}
}

func TestSessionConcurrentOverrides(t *testing.T) {
	s := New("officer", nil)
	_, err := s.Allocate(testRoster(), "k", testCatalog())
	require.NoError(t, err)

	ids := []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7", "S8"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.ApplyOverride(testCatalog(), id, allocation.Override{University: "U-" + id, Course: "C"})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()
	assert.Len(t, s.Overrides(), len(ids))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New("officer", nil)
	_, err := s.Allocate(testRoster(), "k", testCatalog())
	require.NoError(t, err)
	_, err = s.ApplyOverride(testCatalog(), "S1", allocation.Override{University: "X", Course: "Y"})
	require.NoError(t, err)

	restored := FromSnapshot(s.Snapshot(), nil)
	assert.Equal(t, s.ID(), restored.ID())
	assert.Equal(t, s.Overrides(), restored.Overrides())
	assert.Equal(t, s.LastResult(), restored.LastResult())

	res, err := restored.Reallocate(testCatalog())
	require.NoError(t, err)
	assert.Equal(t, "X", res.Rows[0].University)
}
