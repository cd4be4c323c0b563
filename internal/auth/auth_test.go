package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cheap = &HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestPasswordHash(t *testing.T) {
	hash, err := CreateHash("hunter2", cheap)
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := CreateHash("hunter2", cheap)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")

	_, err = ComparePasswordAndHash("hunter2", "plain")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager(time.Hour)
	require.NoError(t, err)

	token, err := m.CreateJWT("alice")
	require.NoError(t, err)

	sub, err := m.AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	_, err = m.AuthenticateJWT(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenManager(time.Hour)
	require.NoError(t, err)
	_, err = other.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	m, err := NewTokenManager(time.Minute)
	require.NoError(t, err)
	issued := time.Now()
	m.now = func() time.Time { return issued }

	token, err := m.CreateJWT("bob")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.AuthenticateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	forever, err := NewTokenManager(0)
	require.NoError(t, err)
	token, err = forever.CreateJWT("bob")
	require.NoError(t, err)
	forever.now = func() time.Time { return issued.Add(24 * 365 * time.Hour) }
	sub, err := forever.AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", sub)
}
