package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pyneda/stapi/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewFileStore(path)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	err = store.Save(&Session{
		Token:     "abc123",
		User:      &client.User{PK: 3, Username: "alice", Email: "alice@example.com"},
		Server:    "http://localhost:8000",
		CreatedAt: created,
	})
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", loaded.Token)
	require.NotNil(t, loaded.User)
	assert.Equal(t, "alice", loaded.User.Username)
	assert.Equal(t, 3, loaded.User.PK)
	assert.True(t, created.Equal(loaded.CreatedAt))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
		dir, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o700), dir.Mode().Perm())
	}

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileStoreRejectsEmptyToken(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))
	assert.Error(t, store.Save(&Session{}))
	assert.Error(t, store.Save(nil))
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))
	_, err := NewFileStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(nil)
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	s := &Session{Token: "t1"}
	require.NoError(t, store.Save(s))
	s.Token = "mutated"

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "t1", loaded.Token)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestTokenInfo(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  float64(42),
		"username": "alice",
		"exp":      exp.Unix(),
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	info, ok := TokenInfo(signed)
	require.True(t, ok)
	assert.Equal(t, "42", info.Subject)
	assert.Equal(t, "alice", info.Username)
	assert.True(t, exp.Equal(info.ExpiresAt))
	assert.True(t, info.Expired(time.Now()))

	_, ok = TokenInfo("9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b")
	assert.False(t, ok)
}

func TestInfoWithoutExpiryNeverExpires(t *testing.T) {
	assert.False(t, Info{}.Expired(time.Now()))
}
