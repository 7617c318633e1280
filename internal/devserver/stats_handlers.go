package devserver

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
)

const topN = 5

// @Summary Dashboard statistics
// @Tags stats
// @Produce json
// @Success 200 {object} client.AdminStats
// @Router /api/admin/stats [get]
func (s *Server) getStats(c *gin.Context) {
	stats, err := s.computeStats(time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) computeStats(now time.Time) (*client.AdminStats, error) {
	day, week, month := now.AddDate(0, 0, -1), now.AddDate(0, 0, -7), now.AddDate(0, -1, 0)
	stats := &client.AdminStats{}

	counts := []struct {
		model interface{}
		cond  string
		since *time.Time
		dest  *int64
	}{
		{&User{}, "", nil, &stats.TotalUsers},
		{&User{}, "created_at >= ?", &day, &stats.NewUsersDay},
		{&User{}, "created_at >= ?", &week, &stats.NewUsersWeek},
		{&User{}, "created_at >= ?", &month, &stats.NewUsersMonth},
		{&User{}, "last_login_at >= ?", &day, &stats.DAU},
		{&User{}, "last_login_at >= ?", &week, &stats.WAU},
		{&User{}, "last_login_at >= ?", &month, &stats.MAU},
		{&Book{}, "", nil, &stats.TotalBooks},
		{&Book{}, "created_at >= ?", &day, &stats.NewBooksDay},
		{&Book{}, "created_at >= ?", &week, &stats.NewBooksWeek},
		{&Book{}, "created_at >= ?", &month, &stats.NewBooksMonth},
	}
	for _, cnt := range counts {
		query := s.db.Model(cnt.model)
		if cnt.since != nil {
			query = query.Where(cnt.cond, *cnt.since)
		}
		if err := query.Count(cnt.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}

	var byVisits []Book
	if err := withAssociations(s.db).Order("nb_visit DESC, id").Limit(topN).Find(&byVisits).Error; err != nil {
		return nil, fmt.Errorf("failed to rank books by visits: %w", err)
	}
	var err error
	if stats.TopBooksByVisits, err = s.toBooks(byVisits); err != nil {
		return nil, err
	}

	aggregates, err := s.bookAggregates(nil)
	if err != nil {
		return nil, err
	}
	ranked := make([]bookAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		ranked = append(ranked, agg)
	}

	byReaders := topAggregates(ranked, func(a bookAggregate) (float64, bool) {
		return float64(a.Readers), true
	})
	byRating := topAggregates(ranked, func(a bookAggregate) (float64, bool) {
		if a.AvgRating == nil {
			return 0, false
		}
		return *a.AvgRating, true
	})
	trending := topAggregates(ranked, func(a bookAggregate) (float64, bool) {
		return a.engagementTrend(), a.Active7 > 0
	})

	books, err := s.loadBooks(append(append(append([]int64{}, byReaders...), byRating...), trending...))
	if err != nil {
		return nil, err
	}

	stats.TopBooksByReaders = make([]client.Book, 0, len(byReaders))
	for _, id := range byReaders {
		agg := aggregates[id]
		stats.TopBooksByReaders = append(stats.TopBooksByReaders, toBook(books[id], &agg))
	}
	stats.TopBooksByRating = make([]client.Book, 0, len(byRating))
	for _, id := range byRating {
		agg := aggregates[id]
		stats.TopBooksByRating = append(stats.TopBooksByRating, toBook(books[id], &agg))
	}
	stats.TrendingBooks = make([]client.BookTrend, 0, len(trending))
	for _, id := range trending {
		book := books[id]
		stats.TrendingBooks = append(stats.TrendingBooks, client.BookTrend{
			ID:     book.ID,
			Name:   book.Name,
			Delta:  aggregates[id].engagementTrend(),
			ImgURL: book.ImgURL,
		})
	}

	if stats.TopAuthorsByReaders, err = s.topEntities("authors", "book_authors", "author_id"); err != nil {
		return nil, err
	}
	if stats.TopTagsByReaders, err = s.topEntities("tags", "book_tags", "tag_id"); err != nil {
		return nil, err
	}

	return stats, nil
}

// topAggregates returns the IDs of the best books by score, highest first.
// Books for which score reports false are skipped.
func topAggregates(aggs []bookAggregate, score func(bookAggregate) (float64, bool)) []int64 {
	type scored struct {
		id    int64
		score float64
	}
	var candidates []scored
	for _, a := range aggs {
		if v, ok := score(a); ok {
			candidates = append(candidates, scored{id: a.BookID, score: v})
		}
	}
	slices.SortFunc(candidates, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	ids := make([]int64, 0, topN)
	for i := 0; i < len(candidates) && i < topN; i++ {
		ids = append(ids, candidates[i].id)
	}
	return ids
}

func (s *Server) loadBooks(ids []int64) (map[int64]Book, error) {
	books := make(map[int64]Book, len(ids))
	if len(ids) == 0 {
		return books, nil
	}

	var rows []Book
	if err := withAssociations(s.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}
	for _, b := range rows {
		books[b.ID] = b
	}
	return books, nil
}

// topEntities ranks authors or tags by distinct readers of their books
func (s *Server) topEntities(table, joinTable, joinColumn string) ([]client.EntityCount, error) {
	var rows []client.EntityCount
	err := s.db.Table(table).
		Select(fmt.Sprintf("%s.name AS name, COUNT(DISTINCT readings.user_id) AS count", table)).
		Joins(fmt.Sprintf("JOIN %s ON %s.%s = %s.id", joinTable, joinTable, joinColumn, table)).
		Joins(fmt.Sprintf("JOIN readings ON readings.book_id = %s.book_id", joinTable)).
		Group(table + ".id").
		Order("count DESC, name").
		Limit(topN).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank %s: %w", table, err)
	}
	if rows == nil {
		rows = []client.EntityCount{}
	}
	return rows, nil
}
