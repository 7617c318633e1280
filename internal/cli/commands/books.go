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
)

// NewBooksCmd creates the books command group
func NewBooksCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "books",
		Aliases: []string{"book"},
		Short:   "Browse and edit the book catalogue",
	}

	cmd.AddCommand(newBooksListCmd(opts))
	cmd.AddCommand(newBooksGetCmd(opts))
	cmd.AddCommand(newBooksUpdateCmd(opts))
	cmd.AddCommand(newBooksDeleteCmd(opts))
	cmd.AddCommand(newBooksSearchCmd(opts))

	return cmd
}

type booksListFlags struct {
	format     string
	page, size int
	all        bool
	filter     client.BookFilter
	completed  bool
	minRating  float64
	maxRating  float64
}

func newBooksListCmd(opts []Option) *cobra.Command {
	var f booksListFlags

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List books",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("completed") {
				f.filter.IsCompleted = &f.completed
			}
			if flags.Changed("min-rating") {
				f.filter.MinRating = &f.minRating
			}
			if flags.Changed("max-rating") {
				f.filter.MaxRating = &f.maxRating
			}
			return runBooksList(cmd.Context(), f, buildOptions(opts))
		},
	}

	addOutputFlag(cmd, &f.format)
	cmd.Flags().IntVar(&f.page, "page", 0, "Page number, starting at 0")
	cmd.Flags().IntVar(&f.size, "size", 20, "Page size")
	cmd.Flags().BoolVar(&f.all, "all", false, "Fetch the whole catalogue in one request")
	cmd.Flags().StringSliceVar(&f.filter.Tags, "tag", nil, "Only books with this tag (repeatable)")
	cmd.Flags().StringVar(&f.filter.Search, "search", "", "Match title or synopsis")
	cmd.Flags().StringVar(&f.filter.Author, "author", "", "Only books by this author")
	cmd.Flags().StringVar(&f.filter.DateFrom, "date-from", "", "Only books started after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.filter.DateTo, "date-to", "", "Only books started before this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.completed, "completed", false, "Only completed (or, with =false, ongoing) series")
	cmd.Flags().Float64Var(&f.minRating, "min-rating", 0, "Minimum average rating")
	cmd.Flags().Float64Var(&f.maxRating, "max-rating", 0, "Maximum average rating")

	return cmd
}

func runBooksList(ctx context.Context, f booksListFlags, o *options) error {
	a, err := newApp(o)
	if err != nil {
		return err
	}
	p, err := a.printer(f.format)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	var (
		books  []client.Book
		result interface{}
		footer string
	)
	if f.all {
		books, err = a.client.AllBooks(ctx)
		if err != nil {
			return err
		}
		result = books
		footer = fmt.Sprintf("\n%d books", len(books))
	} else {
		page, err := a.client.ListBooks(ctx, f.filter, f.page, f.size)
		if err != nil {
			return err
		}
		books = page.Content
		result = page
		footer = fmt.Sprintf("\nPage %d of %d (%d books)", page.CurrentPage+1, max(page.TotalPages, 1), page.TotalElements)
	}

	if len(books) == 0 && p.Format() == output.FormatTable {
		p.Message("No books found.")
		return nil
	}

	if err := p.Print(result, func(t *uitable.Table) {
		addBookRows(t, books)
	}); err != nil {
		return err
	}

	p.Message("%s", footer)
	return nil
}

func addBookRows(t *uitable.Table, books []client.Book) {
	t.AddRow("ID", "NAME", "VOLUMES", "RATING", "TAGS", "AUTHORS")
	for _, book := range books {
		rating := "-"
		if book.Note != nil {
			rating = fmt.Sprintf("%.1f", *book.Note)
		}
		t.AddRow(
			book.ID,
			book.Name,
			book.NbVolume,
			rating,
			joinNames(book.Tags, func(tag client.Tag) string { return tag.Name }),
			joinNames(book.Authors, func(author client.Author) string { return author.Name }),
		)
	}
}

func joinNames[T any](items []T, name func(T) string) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, name(item))
	}
	return valueOrDash(strings.Join(names, ","))
}

func newBooksGetCmd(opts []Option) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one book with its reading statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBooksGet(cmd.Context(), args[0], format, buildOptions(opts))
		},
	}
	addOutputFlag(cmd, &format)

	return cmd
}

func runBooksGet(ctx context.Context, arg, format string, o *options) error {
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

	book, err := a.client.GetBook(ctx, id)
	if client.IsNotFound(err) {
		return fmt.Errorf("book %d not found", id)
	}
	if err != nil {
		return err
	}

	return p.Print(book, func(t *uitable.Table) {
		addBookRows(t, []client.Book{*book})
	})
}

type bookUpdateFlags struct {
	name, synopsis     string
	dateStart, dateEnd string
	imgURL             string
	volumes            int
}

func newBooksUpdateCmd(opts []Option) *cobra.Command {
	var (
		format string
		f      bookUpdateFlags
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a book; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := bookUpdateFromFlags(cmd.Flags(), f)
			return runBooksUpdate(cmd.Context(), args[0], format, update, buildOptions(opts))
		},
	}

	addOutputFlag(cmd, &format)
	cmd.Flags().StringVar(&f.name, "name", "", "Title")
	cmd.Flags().StringVar(&f.synopsis, "synopsis", "", "Synopsis")
	cmd.Flags().StringVar(&f.dateStart, "date-start", "", "Publication start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.dateEnd, "date-end", "", "Publication end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.imgURL, "image-url", "", "Cover image URL")
	cmd.Flags().IntVar(&f.volumes, "volumes", 0, "Number of volumes")

	return cmd
}

func bookUpdateFromFlags(flags *pflag.FlagSet, f bookUpdateFlags) client.BookUpdate {
	var update client.BookUpdate
	if flags.Changed("name") {
		update.Name = &f.name
	}
	if flags.Changed("synopsis") {
		update.Synopsis = &f.synopsis
	}
	if flags.Changed("date-start") {
		update.DateStart = &f.dateStart
	}
	if flags.Changed("date-end") {
		update.DateEnd = &f.dateEnd
	}
	if flags.Changed("image-url") {
		update.ImgURL = &f.imgURL
	}
	if flags.Changed("volumes") {
		update.NbVolume = &f.volumes
	}
	return update
}

func runBooksUpdate(ctx context.Context, arg, format string, update client.BookUpdate, o *options) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if update.IsZero() {
		return errors.New("nothing to update: pass at least one of --name, --synopsis, --date-start, --date-end, --image-url, --volumes")
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

	book, err := a.client.UpdateBook(ctx, id, update)
	if client.IsNotFound(err) {
		return fmt.Errorf("book %d not found", id)
	}
	if err != nil {
		return err
	}

	p.Message("✓ Book %d updated\n", book.ID)
	return p.Print(book, func(t *uitable.Table) {
		addBookRows(t, []client.Book{*book})
	})
}

func newBooksDeleteCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book with its readings and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBooksDelete(cmd.Context(), args[0], buildOptions(opts))
		},
	}
}

func runBooksDelete(ctx context.Context, arg string, o *options) error {
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

	if err := a.client.DeleteBook(ctx, id); err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("book %d not found", id)
		}
		return err
	}

	fmt.Fprintf(a.out, "✓ Book %d deleted\n", id)
	return nil
}

func newBooksSearchCmd(opts []Option) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over the catalogue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBooksSearch(cmd.Context(), strings.Join(args, " "), format, buildOptions(opts))
		},
	}
	addOutputFlag(cmd, &format)

	return cmd
}

func runBooksSearch(ctx context.Context, query, format string, o *options) error {
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

	books, err := a.client.SearchBooks(ctx, query)
	if err != nil {
		return err
	}

	if len(books) == 0 && p.Format() == output.FormatTable {
		p.Message("No books match %q.", query)
		return nil
	}

	return p.Print(books, func(t *uitable.Table) {
		addBookRows(t, books)
	})
}
