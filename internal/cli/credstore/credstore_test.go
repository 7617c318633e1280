package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// exerciseStore runs the contract every backend must honour
func exerciseStore(t *testing.T, store session.Store) {
	t.Helper()

	_, ok, err := store.Get(session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(session.TokenKey, "tok-123"))
	require.NoError(t, store.Set(session.UserKey, `{"id":1}`))

	value, ok, err := store.Get(session.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-123", value)

	require.NoError(t, store.Set(session.TokenKey, "tok-456"))
	value, _, err = store.Get(session.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-456", value)

	require.NoError(t, store.Delete(session.TokenKey))
	_, ok, err = store.Get(session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is a no-op
	require.NoError(t, store.Delete(session.TokenKey))

	value, ok, err = store.Get(session.UserKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, value)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestKeyring(t *testing.T) {
	keyring.MockInit()
	exerciseStore(t, NewKeyring("api.example.com"))
}

func TestKeyring_NamespacesAreIsolated(t *testing.T) {
	keyring.MockInit()
	prod := NewKeyring("api.example.com")
	dev := NewKeyring("localhost:8080")

	require.NoError(t, prod.Set(session.TokenKey, "prod-token"))

	_, ok, err := dev.Get(session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	exerciseStore(t, NewFile(path, "api.example.com"))
}

func TestFile_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFile(path, "")

	require.NoError(t, store.Set(session.TokenKey, "tok"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFile_RemovedWhenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFile(path, "")

	require.NoError(t, store.Set(session.TokenKey, "tok"))
	require.NoError(t, store.Set(session.UserKey, "{}"))
	require.NoError(t, store.Delete(session.TokenKey))
	require.NoError(t, store.Delete(session.UserKey))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))
	store := NewFile(path, "")

	_, _, err := store.Get(session.TokenKey)
	var corrupt *session.StorageCorruptionError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, session.TokenKey, corrupt.Key)

	require.NoError(t, store.Set(session.TokenKey, "tok-123"))
	value, ok, err := store.Get(session.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-123", value)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))
	require.NoError(t, store.Delete(session.UserKey))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

type stubAuthenticator struct{}

func (stubAuthenticator) Login(_ context.Context, creds session.Credentials) (*session.LoginPayload, error) {
	return &session.LoginPayload{Token: "tok-new", UserID: 1, Email: creds.Email, Roles: []string{session.AdminRole}}, nil
}

func TestFile_LoginAfterCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	corrupt := func() {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	}
	creds := session.Credentials{Email: "a@x.com", Password: "secret"}

	corrupt()
	m := session.NewManager(NewFile(path, "api.example.com"), stubAuthenticator{})
	assert.True(t, m.LoadFromStorage().Empty())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "loading clears the corrupt file")

	corrupt()
	require.NoError(t, m.Logout())

	corrupt()
	_, err = m.Login(context.Background(), creds)
	require.NoError(t, err)

	restored := session.NewManager(NewFile(path, "api.example.com"), stubAuthenticator{})
	s := restored.LoadFromStorage()
	assert.True(t, s.IsAdmin)
	assert.Equal(t, "tok-new", s.AuthToken)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		backend     string
		expected    interface{}
		shouldError bool
	}{
		{name: "default is keyring", backend: "", expected: &Keyring{}},
		{name: "keyring", backend: BackendKeyring, expected: &Keyring{}},
		{name: "file", backend: BackendFile, expected: &File{}},
		{name: "memory", backend: BackendMemory, expected: &Memory{}},
		{name: "unknown", backend: "redis", shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(tt.backend, "host", filepath.Join(t.TempDir(), "c.json"))
			if tt.shouldError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.expected, store)
		})
	}
}
