package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
	"github.com/bookadmin-dev/bookadmin/internal/cli/credstore"
	"github.com/bookadmin-dev/bookadmin/internal/cli/userconfig"
	"github.com/bookadmin-dev/bookadmin/internal/config"
	"github.com/bookadmin-dev/bookadmin/internal/session"
)

const (
	testAPIKey = "test-api-key"
	testToken  = "test-token"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

// fakePrompter answers prompts from fixed values
type fakePrompter struct {
	email    string
	password string
	theme    string
	err      error
}

func (f *fakePrompter) Email() (string, error)    { return f.email, f.err }
func (f *fakePrompter) Password() (string, error) { return f.password, f.err }
func (f *fakePrompter) SelectTheme(current string) (string, error) {
	if f.theme == "" {
		return current, f.err
	}
	return f.theme, f.err
}

// testEnv is a fake admin API plus the local state a command touches
type testEnv struct {
	t          *testing.T
	mux        *http.ServeMux
	server     *httptest.Server
	store      *credstore.Memory
	out        *bytes.Buffer
	userConfig *userconfig.Store
	prompter   *fakePrompter
	token      string

	mu       sync.Mutex
	requests []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		t:          t,
		mux:        http.NewServeMux(),
		store:      credstore.NewMemory(),
		out:        &bytes.Buffer{},
		userConfig: userconfig.NewStore(filepath.Join(t.TempDir(), "config.json")),
		prompter:   &fakePrompter{},
		token:      testToken,
	}
	e.server = httptest.NewServer(http.HandlerFunc(e.serve))
	t.Cleanup(e.server.Close)

	t.Setenv("BOOKADMIN_EMAIL", "")
	t.Setenv("BOOKADMIN_PASSWORD", "")

	return e
}

// serve enforces the API key and bearer token the way the admin API does
func (e *testEnv) serve(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.requests = append(e.requests, r.Method+" "+r.URL.Path)
	e.mu.Unlock()

	if r.Header.Get(client.HeaderAPIKey) != testAPIKey {
		writeJSON(e.t, w, http.StatusForbidden, map[string]string{"error": "invalid API key"})
		return
	}
	if r.URL.Path != client.EndpointLogin && r.Header.Get("Authorization") != "Bearer "+e.token {
		writeJSON(e.t, w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	e.mux.ServeHTTP(w, r)
}

func (e *testEnv) handle(pattern string, handler http.HandlerFunc) {
	e.mux.HandleFunc(pattern, handler)
}

func (e *testEnv) requestCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

func (e *testEnv) options() []Option {
	cfg := &config.Config{
		API: config.APIConfig{
			URL:     e.server.URL,
			Key:     testAPIKey,
			Timeout: 5 * time.Second,
		},
		Storage: config.StorageConfig{Backend: credstore.BackendMemory},
		UI:      config.UIConfig{Theme: userconfig.ThemeLight},
		Logging: config.LoggingConfig{Level: "disabled", Format: "console"},
	}
	return []Option{
		WithConfig(cfg),
		WithStore(e.store),
		WithOutput(e.out),
		WithUserConfig(e.userConfig),
		WithPrompter(e.prompter),
	}
}

// seedSession stores a credential record as a previous login would have
func (e *testEnv) seedSession(roles ...string) {
	e.t.Helper()
	user := session.UserRecord{
		ID:          1,
		DisplayName: "Alice Admin",
		Email:       "alice@example.com",
		Roles:       roles,
	}
	data, err := json.Marshal(user)
	require.NoError(e.t, err)
	require.NoError(e.t, e.store.Set(session.TokenKey, e.token))
	require.NoError(e.t, e.store.Set(session.UserKey, string(data)))
}

func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func decodeJSON(t *testing.T, r *http.Request, v interface{}) {
	require.NoError(t, json.NewDecoder(r.Body).Decode(v))
}
