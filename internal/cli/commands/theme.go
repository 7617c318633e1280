package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookadmin-dev/bookadmin/internal/cli/userconfig"
	"github.com/bookadmin-dev/bookadmin/internal/config"
)

// NewThemeCmd creates the theme command group. It only touches local
// preferences, so it works without an API key.
func NewThemeCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the colour theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemeGet(buildOptions(opts))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the current theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemeGet(buildOptions(opts))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemeToggle(buildOptions(opts))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "set [light|dark]",
		Short:     "Choose a theme (prompts when no theme is given)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{userconfig.ThemeLight, userconfig.ThemeDark},
		RunE: func(cmd *cobra.Command, args []string) error {
			theme := ""
			if len(args) == 1 {
				theme = args[0]
			}
			return runThemeSet(theme, buildOptions(opts))
		},
	})

	return cmd
}

// defaultTheme is the configured theme used when no preference is stored
func defaultTheme(o *options) (string, error) {
	if o.cfg != nil {
		return o.cfg.UI.Theme, nil
	}
	ui, _, err := config.LoadLocal()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return ui.Theme, nil
}

func runThemeGet(o *options) error {
	fallback, err := defaultTheme(o)
	if err != nil {
		return err
	}
	store, err := userConfigStore(o)
	if err != nil {
		return err
	}

	theme, err := store.Theme(fallback)
	if err != nil {
		return err
	}

	fmt.Fprintln(o.out, theme)
	return nil
}

func runThemeToggle(o *options) error {
	fallback, err := defaultTheme(o)
	if err != nil {
		return err
	}
	store, err := userConfigStore(o)
	if err != nil {
		return err
	}

	theme, err := store.ToggleTheme(fallback)
	if err != nil {
		return err
	}

	fmt.Fprintf(o.out, "✓ Theme set to %s\n", theme)
	return nil
}

func runThemeSet(theme string, o *options) error {
	fallback, err := defaultTheme(o)
	if err != nil {
		return err
	}
	store, err := userConfigStore(o)
	if err != nil {
		return err
	}

	if theme == "" {
		current, err := store.Theme(fallback)
		if err != nil {
			return err
		}
		theme, err = prompterFor(o, current).SelectTheme(current)
		if err != nil {
			return err
		}
	}

	if err := store.SetTheme(theme); err != nil {
		return err
	}

	fmt.Fprintf(o.out, "✓ Theme set to %s\n", theme)
	return nil
}
