package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by this package
const EnvPrefix = "BOOKADMIN"

// Config holds all configuration for the CLI
type Config struct {
	// Admin API Configuration
	API APIConfig

	// Credential Storage Configuration
	Storage StorageConfig

	// Appearance Configuration
	UI UIConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the admin API endpoint and its static key. The key has no
// default: a missing key is a configuration error.
type APIConfig struct {
	URL      string        `envconfig:"API_URL" default:"http://localhost:8080" validate:"required,url"`
	Key      string        `envconfig:"API_KEY" required:"true" validate:"required"`
	Timeout  time.Duration `envconfig:"API_TIMEOUT" default:"30s" validate:"gt=0"`
	Insecure bool          `envconfig:"API_INSECURE"`
}

// StorageConfig selects where the admin session is persisted
type StorageConfig struct {
	Backend string `envconfig:"CREDENTIAL_STORE" default:"keyring" validate:"oneof=keyring file memory"`
	File    string `envconfig:"CREDENTIAL_FILE"`
}

// UIConfig holds presentation defaults
type UIConfig struct {
	Theme string `envconfig:"THEME" default:"light" validate:"oneof=light dark"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"warn"`
	Format string `envconfig:"LOG_FORMAT" default:"console" validate:"oneof=console json"` // json, console
}

// DevServerConfig holds configuration for the local stub of the admin API
type DevServerConfig struct {
	Addr          string        `envconfig:"DEV_ADDR" default:":8080" validate:"required"`
	APIKey        string        `envconfig:"DEV_API_KEY" required:"true" validate:"required"`
	JWTSecret     string        `envconfig:"DEV_JWT_SECRET" required:"true" validate:"required,min=32"`
	AdminEmail    string        `envconfig:"DEV_ADMIN_EMAIL" default:"admin@bookadmin.local" validate:"required,email"`
	AdminPassword string        `envconfig:"DEV_ADMIN_PASSWORD" required:"true" validate:"required,min=8"`
	DatabaseURL   string        `envconfig:"DEV_DATABASE_URL" default:":memory:" validate:"required"`
	TokenTTL      time.Duration `envconfig:"DEV_TOKEN_TTL" default:"1h" validate:"gt=0"`
	CORSOrigins   []string      `envconfig:"DEV_CORS_ORIGINS" default:"http://localhost:5173"`
	ResetSchedule string        `envconfig:"DEV_RESET_SCHEDULE"` // 5-field cron expression, empty disables
}

// DevServer bundles the dev server settings with logging
type DevServer struct {
	Server  DevServerConfig
	Logging LoggingConfig
}

var validate = validator.New()

// Load loads the CLI configuration from the environment
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := process(&cfg.API, &cfg.Storage, &cfg.UI, &cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLocal loads only the sections that do not involve the admin API, for
// commands that must work before the API key is configured.
func LoadLocal() (*UIConfig, *LoggingConfig, error) {
	loadDotEnv()

	ui := &UIConfig{}
	logging := &LoggingConfig{}
	if err := process(ui, logging); err != nil {
		return nil, nil, err
	}
	return ui, logging, nil
}

// LoadDevServer loads the dev server configuration from the environment
func LoadDevServer() (*DevServer, error) {
	loadDotEnv()

	cfg := &DevServer{}
	if err := process(&cfg.Server, &cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env files (fails silently if files don't exist)
func loadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func process(sections ...interface{}) error {
	for _, section := range sections {
		if err := envconfig.Process(EnvPrefix, section); err != nil {
			return fmt.Errorf("failed to read configuration: %w", err)
		}
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}
