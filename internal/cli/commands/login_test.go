package commands

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookadmin-dev/bookadmin/internal/cli/prompt"
	"github.com/bookadmin-dev/bookadmin/internal/session"
)

func loginHandler(t *testing.T, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds session.Credentials
		decodeJSON(t, r, &creds)
		if creds.Password != "correct-horse" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "Bad credentials"})
			return
		}
		writeJSON(t, w, http.StatusOK, session.LoginPayload{
			Token:       testToken,
			ExpiresIn:   3600,
			UserID:      1,
			DisplayName: "Alice Admin",
			Email:       creds.Email,
			Roles:       roles,
		})
	}
}

func TestLoginCommand_Success(t *testing.T) {
	env := newTestEnv(t)
	env.handle("POST /api/admin/login", loginHandler(t, "ADMIN", "USER"))

	err := execute(NewLoginCmd(env.options()...), "--email", "alice@example.com", "--password", "correct-horse")
	require.NoError(t, err)

	assert.Contains(t, env.out.String(), "Login successful")
	assert.Contains(t, env.out.String(), "Alice Admin (alice@example.com)")
	assert.Contains(t, env.out.String(), "ADMIN, USER")

	token, ok, err := env.store.Get(session.TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testToken, token)

	raw, ok, err := env.store.Get(session.UserKey)
	require.NoError(t, err)
	require.True(t, ok)
	var user session.UserRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &user))
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestLoginCommand_EnvCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.handle("POST /api/admin/login", loginHandler(t, "ADMIN"))
	t.Setenv(prompt.EnvEmail, "alice@example.com")
	t.Setenv(prompt.EnvPassword, "correct-horse")

	require.NoError(t, execute(NewLoginCmd(env.options()...)))
	assert.Equal(t, 2, env.store.Len())
}

func TestLoginCommand_PromptsForMissingInput(t *testing.T) {
	env := newTestEnv(t)
	env.handle("POST /api/admin/login", loginHandler(t, "ADMIN"))
	env.prompter.email = "alice@example.com"
	env.prompter.password = "correct-horse"

	require.NoError(t, execute(NewLoginCmd(env.options()...)))
	assert.Equal(t, 2, env.store.Len())
}

func TestLoginCommand_WrongPasswordAndNonAdminLookTheSame(t *testing.T) {
	env := newTestEnv(t)
	env.handle("POST /api/admin/login", loginHandler(t, "USER"))

	wrongPassword := execute(NewLoginCmd(env.options()...), "--email", "bob@example.com", "--password", "nope")
	require.Error(t, wrongPassword)

	notAdmin := execute(NewLoginCmd(env.options()...), "--email", "bob@example.com", "--password", "correct-horse")
	require.Error(t, notAdmin)

	assert.Equal(t, wrongPassword.Error(), notAdmin.Error())
	assert.True(t, session.IsAuthenticationError(notAdmin))
	assert.Contains(t, notAdmin.Error(), session.GenericAuthMessage)
	assert.Equal(t, 0, env.store.Len())
}

func TestLoginCommand_NonInteractiveWithoutPassword(t *testing.T) {
	env := newTestEnv(t)
	env.prompter.err = prompt.ErrNonInteractive

	err := execute(NewLoginCmd(env.options()...), "--email", "alice@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password is required in non-interactive mode")
	assert.Equal(t, 0, env.requestCount())
}

func TestLoginCommand_ServerUnreachable(t *testing.T) {
	env := newTestEnv(t)
	env.server.Close()

	err := execute(NewLoginCmd(env.options()...), "--email", "alice@example.com", "--password", "correct-horse")
	require.Error(t, err)
	assert.True(t, session.IsNetworkError(err))
	assert.False(t, session.IsAuthenticationError(err))
}

func TestLogoutCommand(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")

	require.NoError(t, execute(NewLogoutCmd(env.options()...)))
	assert.Contains(t, env.out.String(), "Logged out")
	assert.Equal(t, 0, env.store.Len())

	// Logging out twice is harmless
	require.NoError(t, execute(NewLogoutCmd(env.options()...)))
}

func TestStatusCommand_NotLoggedIn(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, execute(NewStatusCmd(env.options()...)))
	assert.Contains(t, env.out.String(), "Not logged in")
	assert.Contains(t, env.out.String(), "bookadmin login")
}

func TestStatusCommand_JSON(t *testing.T) {
	env := newTestEnv(t)

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": expiry.Unix(),
	}).SignedString([]byte("any-secret-will-do"))
	require.NoError(t, err)
	env.token = signed
	env.seedSession("ADMIN")

	require.NoError(t, execute(NewStatusCmd(env.options()...), "-o", "json"))

	var view statusView
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &view))
	assert.True(t, view.LoggedIn)
	assert.Equal(t, "alice@example.com", view.User.Email)
	require.NotNil(t, view.ExpiresAt)
	assert.True(t, expiry.Equal(*view.ExpiresAt))
	assert.Equal(t, 0, env.requestCount(), "status never calls the API")
}

func TestStatusCommand_DiscardsNonAdminRecord(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("USER")

	require.NoError(t, execute(NewStatusCmd(env.options()...)))
	assert.Contains(t, env.out.String(), "Not logged in")
	assert.Equal(t, 0, env.store.Len())
}

func TestTokenExpiry_Opaque(t *testing.T) {
	assert.Nil(t, tokenExpiry("not-a-jwt"))
}

func TestVerifyCommand_Local(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")

	require.NoError(t, execute(NewVerifyCmd(env.options()...)))
	assert.Contains(t, env.out.String(), "Session is valid")
	assert.Equal(t, 0, env.requestCount())
}

func TestVerifyCommand_NoSession(t *testing.T) {
	env := newTestEnv(t)

	err := execute(NewVerifyCmd(env.options()...))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bookadmin login")
}

func TestVerifyCommand_Remote(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("GET /api/admin/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]bool{"valid": true})
	})

	require.NoError(t, execute(NewVerifyCmd(env.options()...), "--remote"))
	assert.Equal(t, 1, env.requestCount())
	assert.Equal(t, 2, env.store.Len())
}

func TestVerifyCommand_RemoteRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("GET /api/admin/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]bool{"valid": false})
	})

	err := execute(NewVerifyCmd(env.options()...), "--remote")
	require.Error(t, err)
	assert.Equal(t, 0, env.store.Len())
}

func TestVerifyCommand_RemoteUnreachableKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.server.Close()

	err := execute(NewVerifyCmd(env.options()...), "--remote")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not reach the admin API")
	assert.Equal(t, 2, env.store.Len())
}
