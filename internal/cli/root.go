package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookadmin-dev/bookadmin/internal/cli/commands"
	"github.com/bookadmin-dev/bookadmin/internal/config"
	"github.com/bookadmin-dev/bookadmin/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the bookadmin command tree. opts are passed to every
// subcommand.
func NewRootCmd(opts ...commands.Option) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bookadmin",
		Short: "bookadmin - Admin console for the book tracking platform",
		Long: `bookadmin CLI - Administer users, books, tags and comments from the terminal.

Sign in once with an ADMIN account; the session is kept in the OS keyring
(or a private file) until you log out or the API rejects the token.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, logging, err := config.LoadLocal()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.Init(logging.Level, logging.Format)
			return nil
		},
	}

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookadmin version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd(opts...))
	rootCmd.AddCommand(commands.NewLogoutCmd(opts...))
	rootCmd.AddCommand(commands.NewStatusCmd(opts...))
	rootCmd.AddCommand(commands.NewVerifyCmd(opts...))
	rootCmd.AddCommand(commands.NewUsersCmd(opts...))
	rootCmd.AddCommand(commands.NewCommentsCmd(opts...))
	rootCmd.AddCommand(commands.NewBooksCmd(opts...))
	rootCmd.AddCommand(commands.NewTagsCmd(opts...))
	rootCmd.AddCommand(commands.NewStatsCmd(opts...))
	rootCmd.AddCommand(commands.NewThemeCmd(opts...))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
