package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerGetCreatesOncePerOwner(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, nil)

	var wg sync.WaitGroup
	got := make([]*Session, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Get(ctx, "officer")
			assert.NoError(t, err)
			got[i] = s
		}(i)
	}
	wg.Wait()
	for _, s := range got {
		assert.Same(t, got[0], s)
	}

	other, err := m.Get(ctx, "viewer")
	require.NoError(t, err)
	assert.NotSame(t, got[0], other)
	assert.NotEqual(t, got[0].ID(), other.ID())
	assert.Equal(t, 2, m.Len())
}

func TestManagerLookupAndDiscard(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, nil)

	_, ok, err := m.Lookup(ctx, "officer")
	require.NoError(t, err)
	assert.False(t, ok)

	s, err := m.Get(ctx, "officer")
	require.NoError(t, err)

	removed, err := m.Discard(ctx, "officer")
	require.NoError(t, err)
	assert.Same(t, s, removed)

	fresh, err := m.Get(ctx, "officer")
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), fresh.ID())
}

func TestManagerExpireIdle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, err := m.Get(ctx, "stale")
	require.NoError(t, err)
	now = now.Add(45 * time.Minute)
	_, err = m.Get(ctx, "active")
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	assert.Equal(t, []string{"stale"}, m.ExpireIdle(time.Hour))
	assert.Equal(t, 1, m.Len())
}
