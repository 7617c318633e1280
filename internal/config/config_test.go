package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOKADMIN_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.URL)
	assert.Equal(t, "test-key", cfg.API.Key)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.API.Insecure)
	assert.Equal(t, "keyring", cfg.Storage.Backend)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOOKADMIN_API_KEY", "test-key")
	t.Setenv("BOOKADMIN_API_URL", "https://admin.example.com")
	t.Setenv("BOOKADMIN_API_TIMEOUT", "5s")
	t.Setenv("BOOKADMIN_CREDENTIAL_STORE", "file")
	t.Setenv("BOOKADMIN_CREDENTIAL_FILE", "/tmp/creds.json")
	t.Setenv("BOOKADMIN_THEME", "dark")
	t.Setenv("BOOKADMIN_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://admin.example.com", cfg.API.URL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/creds.json", cfg.Storage.File)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_MissingAPIKeyFails(t *testing.T) {
	t.Setenv("BOOKADMIN_API_URL", "https://admin.example.com")
	t.Setenv("BOOKADMIN_API_KEY", "")
	t.Setenv("API_KEY", "")
	os.Unsetenv("BOOKADMIN_API_KEY")
	os.Unsetenv("API_KEY")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestLoad_EmptyAPIKeyFails(t *testing.T) {
	t.Setenv("BOOKADMIN_API_KEY", "")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "url", key: "BOOKADMIN_API_URL", value: "not a url"},
		{name: "store", key: "BOOKADMIN_CREDENTIAL_STORE", value: "redis"},
		{name: "theme", key: "BOOKADMIN_THEME", value: "sepia"},
		{name: "log format", key: "BOOKADMIN_LOG_FORMAT", value: "xml"},
		{name: "timeout", key: "BOOKADMIN_API_TIMEOUT", value: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOOKADMIN_API_KEY", "test-key")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDevServer(t *testing.T) {
	t.Setenv("BOOKADMIN_DEV_API_KEY", "dev-key")
	t.Setenv("BOOKADMIN_DEV_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("BOOKADMIN_DEV_ADMIN_PASSWORD", "correct-horse")
	t.Setenv("BOOKADMIN_DEV_CORS_ORIGINS", "http://localhost:5173,http://localhost:4173")

	cfg, err := LoadDevServer()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "admin@bookadmin.local", cfg.Server.AdminEmail)
	assert.Equal(t, ":memory:", cfg.Server.DatabaseURL)
	assert.Equal(t, time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:4173"}, cfg.Server.CORSOrigins)
}

func TestLoadDevServer_RequiresSecrets(t *testing.T) {
	t.Setenv("BOOKADMIN_DEV_JWT_SECRET", "")
	t.Setenv("DEV_JWT_SECRET", "")
	os.Unsetenv("BOOKADMIN_DEV_JWT_SECRET")
	os.Unsetenv("DEV_JWT_SECRET")
	t.Setenv("BOOKADMIN_DEV_API_KEY", "dev-key")
	t.Setenv("BOOKADMIN_DEV_ADMIN_PASSWORD", "correct-horse")

	_, err := LoadDevServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadLocal_WithoutAPIKey(t *testing.T) {
	t.Setenv("BOOKADMIN_API_KEY", "")
	os.Unsetenv("BOOKADMIN_API_KEY")
	t.Setenv("BOOKADMIN_THEME", "dark")
	t.Setenv("BOOKADMIN_LOG_LEVEL", "debug")

	ui, logging, err := LoadLocal()
	require.NoError(t, err)

	assert.Equal(t, "dark", ui.Theme)
	assert.Equal(t, "debug", logging.Level)
	assert.Equal(t, "console", logging.Format)
}
