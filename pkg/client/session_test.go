package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySession(t *testing.T) {
	s := NewMemorySession()
	_, ok := s.Get(KeySessionToken)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeySessionToken, "tok"))
	v, ok := s.Get(KeySessionToken)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	require.NoError(t, s.Delete(KeySessionToken))
	_, ok = s.Get(KeySessionToken)
	assert.False(t, ok)
}

func TestFileSessionPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mau", "session.json")
	s, err := OpenFileSession(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeySessionID, "alice"))
	require.NoError(t, s.Set(KeyActiveRoomID, "room"))
	require.NoError(t, s.Delete(KeyActiveRoomID))

	reopened, err := OpenFileSession(path)
	require.NoError(t, err)
	v, ok := reopened.Get(KeySessionID)
	assert.True(t, ok)
	assert.Equal(t, "alice", v)
	_, ok = reopened.Get(KeyActiveRoomID)
	assert.False(t, ok)
}

func TestFileSessionCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := OpenFileSession(path)
	assert.Error(t, err)
}
