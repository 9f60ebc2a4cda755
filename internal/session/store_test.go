package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SetBaseAddress("ops.example.com"))
	require.NoError(t, store.SetCredentials("Alice"))
	require.NoError(t, store.SetBearerToken("bearer-tok"))
	require.NoError(t, store.SetCSRFToken("csrf-tok-0123456789"))

	// A second store reading the same file sees everything
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	require.Equal(t, "ops.example.com", reopened.BaseAddress())
	require.Equal(t, "Alice", reopened.Username())
	require.Equal(t, "bearer-tok", reopened.BearerToken())
	require.Equal(t, "csrf-tok-0123456789", reopened.CSRFToken())
	require.True(t, reopened.LoggedIn())
}

func TestFileStoreStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.Empty(t, store.Username())
	require.False(t, store.LoggedIn())
}

func TestLogoutClearsCredentialsKeepsAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetBaseAddress("ops.example.com"))
	require.NoError(t, store.SetCredentials("Alice"))
	require.NoError(t, store.SetBearerToken("bearer-tok"))
	require.NoError(t, store.SetCSRFToken("csrf-tok-0123456789"))

	require.NoError(t, store.Logout())

	require.False(t, store.LoggedIn())
	require.Empty(t, store.Username())
	require.Empty(t, store.BearerToken())
	require.Empty(t, store.CSRFToken())
	require.Equal(t, "ops.example.com", store.BaseAddress())

	// The cleared state is what was persisted
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	require.False(t, reopened.LoggedIn())
	require.Empty(t, reopened.Username())
}

func TestLoggedInImpliesUsername(t *testing.T) {
	store := NewMemStore()
	require.Error(t, store.SetCredentials(""))
	require.False(t, store.LoggedIn())

	path := filepath.Join(t.TempDir(), "session.yaml")
	fileStore, err := NewFileStore(path)
	require.NoError(t, err)
	require.Error(t, fileStore.SetCredentials(""))
	require.False(t, fileStore.LoggedIn())
}

func TestMemStoreLogout(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.SetBaseAddress("ops.example.com"))
	require.NoError(t, store.SetCredentials("Bob"))

	require.NoError(t, store.Logout())
	require.False(t, store.LoggedIn())
	require.Empty(t, store.Username())
	require.Equal(t, "ops.example.com", store.BaseAddress())
}
