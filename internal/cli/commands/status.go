package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/bookadmin-dev/bookadmin/internal/cli/output"
	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// statusView is what the status command reports
type statusView struct {
	LoggedIn  bool                `json:"loggedIn"`
	APIURL    string              `json:"apiUrl"`
	User      *session.UserRecord `json:"user,omitempty"`
	ExpiresAt *time.Time          `json:"expiresAt,omitempty"`
}

// NewStatusCmd creates the status command
func NewStatusCmd(opts ...Option) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored admin session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(format, buildOptions(opts))
		},
	}
	addOutputFlag(cmd, &format)

	return cmd
}

func runStatus(format string, o *options) error {
	a, err := newApp(o)
	if err != nil {
		return err
	}
	p, err := a.printer(format)
	if err != nil {
		return err
	}

	current := a.session.LoadFromStorage()
	view := statusView{
		LoggedIn: current.IsAuthenticated,
		APIURL:   a.cfg.API.URL,
		User:     current.User,
	}
	if current.IsAuthenticated {
		view.ExpiresAt = tokenExpiry(current.AuthToken)
	}

	if !view.LoggedIn && p.Format() == output.FormatTable {
		p.Message("Not logged in to %s.", view.APIURL)
		p.Message("\nSign in with: bookadmin login")
		return nil
	}

	return p.Print(view, func(t *uitable.Table) {
		expires := "unknown"
		if view.ExpiresAt != nil {
			expires = view.ExpiresAt.Local().Format(time.RFC1123)
		}
		t.AddRow("API", "USER", "EMAIL", "ROLES", "EXPIRES")
		t.AddRow(
			view.APIURL,
			view.User.DisplayName,
			view.User.Email,
			strings.Join(view.User.Roles, ","),
			expires,
		)
	})
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client has no key to verify with and only displays the value.
func tokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	return &exp.Time
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd(opts ...Option) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the stored session is usable",
		Long: `Check the stored session locally: a token and an admin user record must be
present. With --remote the admin API is also asked whether the token is still
accepted. An invalid session is cleared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), remote, buildOptions(opts))
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also ask the admin API to validate the token")

	return cmd
}

func runVerify(ctx context.Context, remote bool, o *options) error {
	a, err := newApp(o)
	if err != nil {
		return err
	}
	a.session.LoadFromStorage()

	valid := false
	if remote {
		valid, err = a.session.VerifyRemote(ctx)
		if err != nil {
			return fmt.Errorf("could not reach the admin API: %w", err)
		}
	} else {
		valid = a.session.VerifyAuth()
	}

	if !valid {
		return errors.New("session is not valid. Please run 'bookadmin login'")
	}

	fmt.Fprintln(a.out, "✓ Session is valid")
	return nil
}
