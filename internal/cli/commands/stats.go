package commands

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
)

// NewStatsCmd creates the stats command
func NewStatsCmd(opts ...Option) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), format, buildOptions(opts))
		},
	}
	addOutputFlag(cmd, &format)

	return cmd
}

func runStats(ctx context.Context, format string, o *options) error {
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

	stats, err := a.client.AdminStats(ctx)
	if err != nil {
		return err
	}

	return p.Print(stats, func(t *uitable.Table) {
		t.AddRow("METRIC", "DAY", "WEEK", "MONTH", "TOTAL")
		t.AddRow("new users", stats.NewUsersDay, stats.NewUsersWeek, stats.NewUsersMonth, stats.TotalUsers)
		t.AddRow("active users", stats.DAU, stats.WAU, stats.MAU, "-")
		t.AddRow("new books", stats.NewBooksDay, stats.NewBooksWeek, stats.NewBooksMonth, stats.TotalBooks)
		t.AddRow("top tags", "", "", "", rankedNames(stats.TopTagsByReaders))
		t.AddRow("top authors", "", "", "", rankedNames(stats.TopAuthorsByReaders))
		t.AddRow("trending", "", "", "", trendingNames(stats.TrendingBooks))
	})
}

func rankedNames(counts []client.EntityCount) string {
	return joinNames(counts, func(c client.EntityCount) string {
		return fmt.Sprintf("%s (%d)", c.Name, c.Count)
	})
}

func trendingNames(books []client.BookTrend) string {
	return joinNames(books, func(b client.BookTrend) string {
		return fmt.Sprintf("%s (%+.0f%%)", b.Name, b.Delta)
	})
}
