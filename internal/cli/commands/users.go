package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
	"github.com/bookadmin-dev/bookadmin/internal/cli/output"
	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// NewUsersCmd creates the users command group
func NewUsersCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Browse user accounts",
	}

	cmd.AddCommand(newUsersListCmd(opts))
	cmd.AddCommand(newUsersGetCmd(opts))
	cmd.AddCommand(newUsersUpdateCmd(opts))
	cmd.AddCommand(newUsersDeleteCmd(opts))
	cmd.AddCommand(newUsersCommentsCmd(opts))

	return cmd
}

func newUsersListCmd(opts []Option) *cobra.Command {
	var (
		format     string
		page, size int
		filter     client.UserFilter
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(cmd.Context(), format, page, size, filter, buildOptions(opts))
		},
	}

	addOutputFlag(cmd, &format)
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 0")
	cmd.Flags().IntVar(&size, "size", 20, "Page size")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Match display name or email")
	cmd.Flags().StringVar(&filter.Role, "role", "", "Only users with this role (e.g. ADMIN, USER)")
	cmd.Flags().StringVar(&filter.CreatedAfter, "created-after", "", "Only users created after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.CreatedBefore, "created-before", "", "Only users created before this date (YYYY-MM-DD)")

	return cmd
}

func runUsersList(ctx context.Context, format string, page, size int, filter client.UserFilter, o *options) error {
	a, err := newApp(o)
	if err != nil {
		return err
	}
	p, err := a.printer(format)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	users, err := a.client.ListUsers(ctx, page, size, filter)
	if err != nil {
		return err
	}

	if len(users.Content) == 0 && p.Format() == output.FormatTable {
		p.Message("No users found.")
		return nil
	}

	if err := p.Print(users, func(t *uitable.Table) {
		t.AddRow("ID", "NAME", "EMAIL", "ROLES", "CREATED AT")
		for _, user := range users.Content {
			t.AddRow(
				user.ID,
				user.DisplayName,
				user.Email,
				strings.Join(user.Roles, ","),
				valueOrDash(user.CreatedAt),
			)
		}
	}); err != nil {
		return err
	}

	p.Message("\nPage %d of %d (%d users)", users.Number+1, max(users.TotalPages, 1), users.TotalElements)
	return nil
}

func newUsersGetCmd(opts []Option) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersGet(cmd.Context(), args[0], format, buildOptions(opts))
		},
	}
	addOutputFlag(cmd, &format)

	return cmd
}

func runUsersGet(ctx context.Context, arg, format string, o *options) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	a, err := newApp(o)
	if err != nil {
		return err
	}
	p, err := a.printer(format)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	user, err := a.client.GetUser(ctx, id)
	if client.IsNotFound(err) {
		return fmt.Errorf("user %d not found", id)
	}
	if err != nil {
		return err
	}

	return p.Print(user, func(t *uitable.Table) {
		t.AddRow("ID", "NAME", "EMAIL", "ROLES", "LAST LOGIN", "BOOKS")
		books := "-"
		if user.TotalBooks != nil {
			books = fmt.Sprintf("%d", *user.TotalBooks)
		}
		t.AddRow(
			user.ID,
			user.DisplayName,
			user.Email,
			strings.Join(user.Roles, ","),
			valueOrDash(user.LastLoginAt),
			books,
		)
	})
}

type userUpdateFlags struct {
	name, email, imgURL string
	roles               []string
}

func newUsersUpdateCmd(opts []Option) *cobra.Command {
	var (
		format string
		f      userUpdateFlags
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a user; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := userUpdateFromFlags(cmd.Flags(), f)
			return runUsersUpdate(cmd.Context(), args[0], format, update, buildOptions(opts))
		},
	}

	addOutputFlag(cmd, &format)
	cmd.Flags().StringVar(&f.name, "name", "", "Display name")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.imgURL, "image-url", "", "Profile image URL")
	cmd.Flags().StringSliceVar(&f.roles, "role", nil, "Role to grant; repeat to set several (replaces the current roles)")

	return cmd
}

func userUpdateFromFlags(flags *pflag.FlagSet, f userUpdateFlags) client.UserUpdate {
	var update client.UserUpdate
	if flags.Changed("name") {
		update.DisplayName = &f.name
	}
	if flags.Changed("email") {
		update.Email = &f.email
	}
	if flags.Changed("image-url") {
		update.ProfileImageURL = &f.imgURL
	}
	if flags.Changed("role") {
		for _, role := range f.roles {
			update.Roles = append(update.Roles, strings.ToUpper(strings.TrimSpace(role)))
		}
	}
	return update
}

func runUsersUpdate(ctx context.Context, arg, format string, update client.UserUpdate, o *options) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if update.IsZero() {
		return errors.New("nothing to update: pass at least one of --name, --email, --image-url, --role")
	}

	a, err := newApp(o)
	if err != nil {
		return err
	}
	p, err := a.printer(format)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	user, err := a.client.UpdateUser(ctx, id, update)
	if client.IsNotFound(err) {
		return fmt.Errorf("user %d not found", id)
	}
	if err != nil {
		return err
	}

	p.Message("✓ User %d updated\n", user.ID)
	if err := p.Print(user, func(t *uitable.Table) {
		t.AddRow("ID", "NAME", "EMAIL", "ROLES")
		t.AddRow(user.ID, user.DisplayName, user.Email, strings.Join(user.Roles, ","))
	}); err != nil {
		return err
	}

	// Editing your own account refreshes the stored record
	if current := a.session.Session(); current.User != nil && current.User.ID == user.ID {
		if err := a.session.UpdateUser(*user); err != nil {
			if session.IsAuthenticationError(err) {
				p.Message("\nYour account no longer has the %s role; you have been logged out.", session.AdminRole)
				return nil
			}
			return fmt.Errorf("failed to refresh stored session: %w", err)
		}
	}
	return nil
}

func newUsersDeleteCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user with their readings and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersDelete(cmd.Context(), args[0], buildOptions(opts))
		},
	}
}

func runUsersDelete(ctx context.Context, arg string, o *options) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	a, err := newApp(o)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	if err := a.client.DeleteUser(ctx, id); err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("user %d not found", id)
		}
		return err
	}

	fmt.Fprintf(a.out, "✓ User %d deleted\n", id)
	return nil
}

func newUsersCommentsCmd(opts []Option) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "comments <user-id>",
		Short: "List the comments written by a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersComments(cmd.Context(), args[0], format, buildOptions(opts))
		},
	}
	addOutputFlag(cmd, &format)

	return cmd
}

func runUsersComments(ctx context.Context, arg, format string, o *options) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	a, err := newApp(o)
	if err != nil {
		return err
	}
	p, err := a.printer(format)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	comments, err := a.client.ListUserComments(ctx, id)
	if err != nil {
		return err
	}

	if len(comments) == 0 && p.Format() == output.FormatTable {
		p.Message("No comments found.")
		return nil
	}

	return p.Print(comments, func(t *uitable.Table) {
		t.AddRow("ID", "BOOK", "CREATED AT", "CONTENT")
		for _, comment := range comments {
			book := comment.BookName
			if book == "" {
				book = fmt.Sprintf("#%d", comment.BookID)
			}
			t.AddRow(comment.ID, book, valueOrDash(comment.CreatedAt), comment.Content)
		}
	})
}

// NewCommentsCmd creates the comments command group
func NewCommentsCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Moderate reader comments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommentsDelete(cmd.Context(), args[0], buildOptions(opts))
		},
	})

	return cmd
}

func runCommentsDelete(ctx context.Context, arg string, o *options) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	a, err := newApp(o)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	if err := a.client.DeleteComment(ctx, id); err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("comment %d not found", id)
		}
		return err
	}

	fmt.Fprintf(a.out, "✓ Comment %d deleted\n", id)
	return nil
}
