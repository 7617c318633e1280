package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookadmin-dev/bookadmin/internal/cli/prompt"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts ...Option) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the admin API",
		Long: `Sign in with an admin account. Only accounts with the ADMIN role are accepted.

Credentials are read from --email/--password, then from BOOKADMIN_EMAIL and
BOOKADMIN_PASSWORD, and are otherwise prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password, buildOptions(opts))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set BOOKADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set BOOKADMIN_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, email, password string, o *options) error {
	a, err := newApp(o)
	if err != nil {
		return err
	}

	creds, err := prompt.ResolveCredentials(email, password, prompterFor(o, a.theme))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logging in to %s...\n", a.cfg.API.URL)

	payload, err := a.session.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(a.out, "✓ Login successful!")
	fmt.Fprintf(a.out, "  User: %s (%s)\n", payload.DisplayName, payload.Email)
	fmt.Fprintf(a.out, "  Roles: %s\n", strings.Join(payload.Roles, ", "))

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(buildOptions(opts))
		},
	}
}

func runLogout(o *options) error {
	a, err := newApp(o)
	if err != nil {
		return err
	}

	if err := a.session.Logout(); err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}

	fmt.Fprintln(a.out, "✓ Logged out")
	return nil
}
