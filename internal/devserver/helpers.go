package devserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
	"github.com/bookadmin-dev/bookadmin/internal/session"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
	maxPage         = 1_000_000
	dateLayout      = "2006-01-02"
)

// pageParams reads page and size from the query string. Both are bounded so
// the row offset page*size always fits an int.
func pageParams(c *gin.Context) (page, size int, err error) {
	page, err = strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 || page > maxPage {
		return 0, 0, fmt.Errorf("invalid page %q", c.Query("page"))
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 || size > maxPageSize {
		return 0, 0, fmt.Errorf("invalid size %q", c.Query("size"))
	}
	return page, size, nil
}

func totalPages(total int64, size int) int {
	return int((total + int64(size) - 1) / int64(size))
}

// idParam parses the :id path parameter, answering 400 when it is malformed
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// userStats are the reading totals of one user
type userStats struct {
	TotalBooks     int
	BooksCompleted int
	AverageRating  *float64
}

func (s *Server) userStats(userID int64) (userStats, error) {
	var stats userStats
	err := s.db.Table("readings").
		Select(`COUNT(*) AS total_books,
			COALESCE(SUM(CASE WHEN books.nb_volume > 0 AND readings.current_volume >= books.nb_volume THEN 1 ELSE 0 END), 0) AS books_completed,
			AVG(readings.rating) AS average_rating`).
		Joins("JOIN books ON books.id = readings.book_id").
		Where("readings.user_id = ?", userID).
		Scan(&stats).Error
	return stats, err
}

func toUserRecord(u User, stats *userStats) client.User {
	record := session.UserRecord{
		ID:              u.ID,
		DisplayName:     u.DisplayName,
		Email:           u.Email,
		Roles:           u.Roles,
		CreatedAt:       formatTime(u.CreatedAt),
		ModifiedAt:      formatTime(u.UpdatedAt),
		ProfileImageURL: u.ImageURL,
	}
	if record.Roles == nil {
		record.Roles = []string{}
	}
	if u.LastLoginAt != nil {
		record.LastLoginAt = formatTime(*u.LastLoginAt)
	}
	if stats != nil {
		inProgress := stats.TotalBooks - stats.BooksCompleted
		record.TotalBooks = &stats.TotalBooks
		record.BooksCompleted = &stats.BooksCompleted
		record.BooksInProgress = &inProgress
		record.AverageRating = stats.AverageRating
	}
	return record
}

// bookAggregate holds the reading statistics of one book
type bookAggregate struct {
	BookID       int64
	Readers      int64
	Completed    int64
	NotStarted   int64
	AvgRating    *float64
	AvgVolume    float64
	Active7      int64
	Active30     int64
	NewThisMonth int64
}

// bookAggregates computes reading statistics for the given books, or for
// every book with at least one reader when ids is nil.
func (s *Server) bookAggregates(ids []int64) (map[int64]bookAggregate, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	query := s.db.Table("readings").
		Select(`readings.book_id AS book_id,
			COUNT(*) AS readers,
			SUM(CASE WHEN books.nb_volume > 0 AND readings.current_volume >= books.nb_volume THEN 1 ELSE 0 END) AS completed,
			SUM(CASE WHEN readings.current_volume = 0 THEN 1 ELSE 0 END) AS not_started,
			AVG(readings.rating) AS avg_rating,
			AVG(readings.current_volume) AS avg_volume,
			SUM(CASE WHEN readings.updated_at >= ? THEN 1 ELSE 0 END) AS active7,
			SUM(CASE WHEN readings.updated_at >= ? THEN 1 ELSE 0 END) AS active30,
			SUM(CASE WHEN readings.created_at >= ? THEN 1 ELSE 0 END) AS new_this_month`,
			now.AddDate(0, 0, -7), now.AddDate(0, 0, -30), monthStart).
		Joins("JOIN books ON books.id = readings.book_id").
		Group("readings.book_id")
	if ids != nil {
		query = query.Where("readings.book_id IN ?", ids)
	}

	var rows []bookAggregate
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate readings: %w", err)
	}

	aggregates := make(map[int64]bookAggregate, len(rows))
	for _, row := range rows {
		aggregates[row.BookID] = row
	}
	return aggregates, nil
}

// engagementTrend is the share of readers active in the last week
func (a bookAggregate) engagementTrend() float64 {
	if a.Readers == 0 {
		return 0
	}
	return float64(a.Active7) / float64(a.Readers) * 100
}

func toBook(b Book, agg *bookAggregate) client.Book {
	visits := b.NbVisit
	book := client.Book{
		ID:         b.ID,
		Name:       b.Name,
		Synopsis:   b.Synopsis,
		DateStart:  b.DateStart,
		DateEnd:    b.DateEnd,
		NbVolume:   b.NbVolume,
		NbVisit:    &visits,
		ImgURL:     b.ImgURL,
		Tags:       make([]client.Tag, 0, len(b.Tags)),
		Authors:    make([]client.Author, 0, len(b.Authors)),
		CreatedAt:  formatTime(b.CreatedAt),
		ModifiedAt: formatTime(b.UpdatedAt),
	}
	for _, t := range b.Tags {
		book.Tags = append(book.Tags, client.Tag{ID: t.ID, Name: t.Name})
	}
	for _, a := range b.Authors {
		book.Authors = append(book.Authors, client.Author{ID: a.ID, Name: a.Name})
	}

	if agg == nil {
		agg = &bookAggregate{BookID: b.ID}
	}
	inProgress := agg.Readers - agg.Completed - agg.NotStarted
	avgVolume := agg.AvgVolume
	var avgProgress, completionRate float64
	if b.NbVolume > 0 {
		avgProgress = avgVolume / float64(b.NbVolume) * 100
	}
	if agg.Readers > 0 {
		completionRate = float64(agg.Completed) / float64(agg.Readers) * 100
	}
	trend := agg.engagementTrend()

	book.Note = agg.AvgRating
	book.TotalUsers = &agg.Readers
	book.UsersCompleted = &agg.Completed
	book.UsersNotStarted = &agg.NotStarted
	book.UsersInProgress = &inProgress
	book.AverageVolume = &avgVolume
	book.AverageProgress = &avgProgress
	book.CompletionRate = &completionRate
	book.ActiveUsersLast7Days = &agg.Active7
	book.ActiveUsersLast30Days = &agg.Active30
	book.EngagementTrend = &trend
	book.NewReadersThisMonth = &agg.NewThisMonth
	return book
}

// toBooks converts books and attaches their reading statistics
func (s *Server) toBooks(books []Book) ([]client.Book, error) {
	ids := make([]int64, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	aggregates, err := s.bookAggregates(ids)
	if err != nil {
		return nil, err
	}

	out := make([]client.Book, 0, len(books))
	for _, b := range books {
		var agg *bookAggregate
		if a, ok := aggregates[b.ID]; ok {
			agg = &a
		}
		out = append(out, toBook(b, agg))
	}
	return out, nil
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.name")
	}).Preload("Authors", func(db *gorm.DB) *gorm.DB {
		return db.Order("authors.name")
	})
}
