package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/bookadmin-dev/bookadmin/internal/cli/userconfig"
	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// Environment variables read when login flags are empty
const (
	EnvEmail    = "BOOKADMIN_EMAIL"
	EnvPassword = "BOOKADMIN_PASSWORD"
)

// ErrNonInteractive is returned when input is needed but stdin is not a terminal
var ErrNonInteractive = errors.New("stdin is not a terminal")

var validate = validator.New()

// Prompter asks the user for input
type Prompter interface {
	Email() (string, error)
	Password() (string, error)
	SelectTheme(current string) (string, error)
}

// Terminal prompts on the controlling terminal, styled with the theme accent
type Terminal struct {
	accent string
}

// NewTerminal returns a terminal prompter for theme
func NewTerminal(theme string) *Terminal {
	return &Terminal{accent: userconfig.Accent(theme)}
}

// Email prompts for an email address until a valid one is entered
func (t *Terminal) Email() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", ErrNonInteractive
	}

	prompt := promptui.Prompt{
		Label: "Email",
		Templates: &promptui.PromptTemplates{
			Prompt:  fmt.Sprintf("{{ . | %s }}: ", t.accent),
			Valid:   fmt.Sprintf("{{ . | %s }}: ", t.accent),
			Invalid: "{{ . | red }}: ",
			Success: "{{ . | bold }}: ",
		},
		Validate: func(input string) error {
			if err := validate.Var(strings.TrimSpace(input), "required,email"); err != nil {
				return errors.New("invalid email address")
			}
			return nil
		},
	}

	email, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("email prompt cancelled: %w", err)
	}
	return strings.TrimSpace(email), nil
}

// Password reads a password without echoing it
func (t *Terminal) Password() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNonInteractive
	}

	fmt.Fprint(os.Stderr, "Password: ")
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// SelectTheme shows an interactive theme picker starting at current
func (t *Terminal) SelectTheme(current string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", ErrNonInteractive
	}

	themes := []string{userconfig.ThemeLight, userconfig.ThemeDark}
	cursor := 0
	if current == userconfig.ThemeDark {
		cursor = 1
	}

	prompt := promptui.Select{
		Label: "Select a theme",
		Items: themes,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   fmt.Sprintf("> {{ . | %s }}", t.accent),
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
		CursorPos: cursor,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("theme selection cancelled: %w", err)
	}
	return themes[index], nil
}

// ResolveCredentials determines the login credentials based on the following priority:
// 1. Values passed as flags
// 2. BOOKADMIN_EMAIL / BOOKADMIN_PASSWORD
// 3. Interactive prompts (email via promptui, password hidden)
func ResolveCredentials(email, password string, p Prompter) (session.Credentials, error) {
	if email == "" {
		email = os.Getenv(EnvEmail)
	}
	if password == "" {
		password = os.Getenv(EnvPassword)
	}

	var err error
	if email == "" {
		email, err = p.Email()
		if errors.Is(err, ErrNonInteractive) {
			return session.Credentials{}, fmt.Errorf("email is required in non-interactive mode (use --email flag or %s env var)", EnvEmail)
		}
		if err != nil {
			return session.Credentials{}, err
		}
	}

	if password == "" {
		password, err = p.Password()
		if errors.Is(err, ErrNonInteractive) {
			return session.Credentials{}, fmt.Errorf("password is required in non-interactive mode (use --password flag or %s env var)", EnvPassword)
		}
		if err != nil {
			return session.Credentials{}, err
		}
	}

	return session.Credentials{Email: strings.TrimSpace(email), Password: password}, nil
}
