package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
	"github.com/bookadmin-dev/bookadmin/internal/cli/output"
)

// NewTagsCmd creates the tags command group
func NewTagsCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "Manage book tags",
	}

	var format string
	list := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tags",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTagsList(cmd.Context(), format, buildOptions(opts))
		},
	}
	addOutputFlag(list, &format)

	cmd.AddCommand(list)
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTagsCreate(cmd.Context(), strings.Join(args, " "), buildOptions(opts))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "update <id> <name>",
		Short: "Rename a tag",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTagsUpdate(cmd.Context(), args[0], strings.Join(args[1:], " "), buildOptions(opts))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTagsDelete(cmd.Context(), args[0], buildOptions(opts))
		},
	})

	return cmd
}

func runTagsList(ctx context.Context, format string, o *options) error {
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

	tags, err := a.client.ListTags(ctx)
	if err != nil {
		return err
	}

	if len(tags) == 0 && p.Format() == output.FormatTable {
		p.Message("No tags found.")
		p.Message("\nCreate one with: bookadmin tags create <name>")
		return nil
	}

	return p.Print(tags, func(t *uitable.Table) {
		t.AddRow("ID", "NAME")
		for _, tag := range tags {
			t.AddRow(tag.ID, tag.Name)
		}
	})
}

func runTagsCreate(ctx context.Context, name string, o *options) error {
	a, err := newApp(o)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	tag, err := a.client.CreateTag(ctx, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Tag %q created (ID %d)\n", tag.Name, tag.ID)
	return nil
}

func runTagsUpdate(ctx context.Context, arg, name string, o *options) error {
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

	tag, err := a.client.UpdateTag(ctx, id, name)
	if client.IsNotFound(err) {
		return fmt.Errorf("tag %d not found", id)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Tag %d renamed to %q\n", tag.ID, tag.Name)
	return nil
}

func runTagsDelete(ctx context.Context, arg string, o *options) error {
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

	if err := a.client.DeleteTag(ctx, id); err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("tag %d not found", id)
		}
		return err
	}

	fmt.Fprintf(a.out, "✓ Tag %d deleted\n", id)
	return nil
}
