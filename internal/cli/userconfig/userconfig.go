package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
)

const defaultConfigPath = "~/.config/bookadmin/config.json"

// Theme names
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var validate = validator.New()

// UserConfig represents the user's local preferences stored in ~/.config/bookadmin/config.json
type UserConfig struct {
	Theme string `json:"theme,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	path, err := homedir.Expand(defaultConfigPath)
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return path, nil
}

// ValidateTheme checks that theme is a known theme name
func ValidateTheme(theme string) error {
	if err := validate.Var(theme, "required,oneof=light dark"); err != nil {
		return fmt.Errorf("unknown theme %q, must be one of: light, dark", theme)
	}
	return nil
}

// Store reads and writes the user config file at a fixed path
type Store struct {
	path string
}

// NewStore returns a store for the config file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns the store for the config file in the user's home
func DefaultStore() (*Store, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return NewStore(path), nil
}

// Path returns the location of the config file
func (s *Store) Path() string {
	return s.path
}

// Load reads the user configuration file
func (s *Store) Load() (*UserConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		// If config doesn't exist, return empty config
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to the file
func (s *Store) Save(cfg *UserConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// Theme returns the stored theme, or fallback when none is stored. An
// unreadable stored value also yields fallback.
func (s *Store) Theme(fallback string) (string, error) {
	cfg, err := s.Load()
	if err != nil {
		return "", err
	}
	if ValidateTheme(cfg.Theme) != nil {
		return fallback, nil
	}
	return cfg.Theme, nil
}

// SetTheme validates and persists theme
func (s *Store) SetTheme(theme string) error {
	if err := ValidateTheme(theme); err != nil {
		return err
	}

	cfg, err := s.Load()
	if err != nil {
		return err
	}

	cfg.Theme = theme
	return s.Save(cfg)
}

// ToggleTheme flips the current theme, persists it and returns it
func (s *Store) ToggleTheme(fallback string) (string, error) {
	current, err := s.Theme(fallback)
	if err != nil {
		return "", err
	}

	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}

	if err := s.SetTheme(next); err != nil {
		return "", err
	}
	return next, nil
}

// Accent returns the promptui colour name used to highlight theme
func Accent(theme string) string {
	if theme == ThemeDark {
		return "cyan"
	}
	return "blue"
}
