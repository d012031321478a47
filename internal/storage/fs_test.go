package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	require.NoError(t, err)

	key := RosterKey("officer@school", "../../etc/students.xlsx")
	assert.True(t, strings.HasPrefix(key, "rosters/officer_school/"), key)
	assert.True(t, strings.HasSuffix(key, "-students.xlsx"), key)

	got, err := s.Put(key, strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	rc, err := s.Get(key)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))

	require.NoError(t, s.Delete(key))
	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	assert.Error(t, err)
}

func TestFSStoreKeepsKeysInsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(filepath.Join(base, "blobs"))
	require.NoError(t, err)

	_, err = s.Put("../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "blobs", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "escape.txt"))
	assert.True(t, os.IsNotExist(err))

	_, err = s.Put(" ", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrEmptyKey)
}
