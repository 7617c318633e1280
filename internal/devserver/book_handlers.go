package devserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
)

const searchLimit = 50

const authorBooksSubquery = `books.id IN (SELECT book_authors.book_id FROM book_authors
	JOIN authors ON authors.id = book_authors.author_id WHERE authors.name LIKE ?)`

// applyBookFilter narrows query to the books matching filter
func applyBookFilter(query *gorm.DB, filter client.BookFilter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("books.name LIKE ? OR books.synopsis LIKE ?", like, like)
	}
	if len(filter.Tags) > 0 {
		query = query.Where(`books.id IN (SELECT book_tags.book_id FROM book_tags
			JOIN tags ON tags.id = book_tags.tag_id WHERE tags.name IN ?)`, filter.Tags)
	}
	if filter.Author != "" {
		query = query.Where(authorBooksSubquery, "%"+filter.Author+"%")
	}
	if filter.DateFrom != "" {
		query = query.Where("books.date_start >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("books.date_start <= ?", filter.DateTo)
	}
	if filter.IsCompleted != nil {
		if *filter.IsCompleted {
			query = query.Where("books.date_end <> ''")
		} else {
			query = query.Where("books.date_end IS NULL OR books.date_end = ''")
		}
	}
	if filter.MinVolumes != nil {
		query = query.Where("books.nb_volume >= ?", *filter.MinVolumes)
	}
	if filter.MaxVolumes != nil {
		query = query.Where("books.nb_volume <= ?", *filter.MaxVolumes)
	}
	if filter.MinRating != nil {
		query = query.Where(`books.id IN (SELECT book_id FROM readings
			GROUP BY book_id HAVING AVG(rating) >= ?)`, *filter.MinRating)
	}
	if filter.MaxRating != nil {
		query = query.Where(`books.id IN (SELECT book_id FROM readings
			GROUP BY book_id HAVING AVG(rating) <= ?)`, *filter.MaxRating)
	}
	return query
}

// @Summary List books
// @Description Returns one page of books matching the filter in the body
// @Tags books
// @Accept json
// @Produce json
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size"
// @Param filter body client.BookFilter false "Filter"
// @Success 200 {object} client.BookPage
// @Router /api/admin/books [post]
func (s *Server) listBooks(c *gin.Context) {
	page, size, err := pageParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var filter client.BookFilter
	if err := c.ShouldBindJSON(&filter); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := applyBookFilter(s.db.Model(&Book{}), filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count books")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var books []Book
	if err := withAssociations(query).Order("books.name").Offset(page * size).Limit(size).Find(&books).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list books")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	content, err := s.toBooks(books)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute book stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, client.BookPage{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		CurrentPage:   page,
		Size:          size,
	})
}

// @Summary Search books
// @Tags books
// @Produce json
// @Param q query string true "Name, synopsis or author fragment"
// @Success 200 {array} client.Book
// @Router /api/admin/books/search [get]
func (s *Server) searchBooks(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing search query"})
		return
	}

	like := "%" + q + "%"
	var books []Book
	err := withAssociations(s.db.Model(&Book{})).
		Where("books.name LIKE ? OR books.synopsis LIKE ? OR "+authorBooksSubquery, like, like, like).
		Order("books.name").
		Limit(searchLimit).
		Find(&books).Error
	if err != nil {
		s.logger.Error().Err(err).Str("query", q).Msg("Failed to search books")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp, err := s.toBooks(books)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute book stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// findBook loads a book and its associations by the :id path parameter,
// answering the request itself when the book cannot be loaded.
func (s *Server) findBook(c *gin.Context) (*Book, bool) {
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}

	var book Book
	if err := withAssociations(s.db).First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Int64("book_id", id).Msg("Failed to get book")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &book, true
}

func (s *Server) respondWithBook(c *gin.Context, book Book) {
	books, err := s.toBooks([]Book{book})
	if err != nil {
		s.logger.Error().Err(err).Int64("book_id", book.ID).Msg("Failed to compute book stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, books[0])
}

// @Summary Get book
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} client.Book
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/books/{id} [get]
func (s *Server) getBook(c *gin.Context) {
	book, ok := s.findBook(c)
	if !ok {
		return
	}
	s.respondWithBook(c, *book)
}

// @Summary Update book
// @Description Changes the fields present in the body. Tags and authors,
// @Description when present, replace the current ones.
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Param update body client.BookUpdate true "Fields to change"
// @Success 200 {object} client.Book
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/books/{id} [put]
func (s *Server) updateBook(c *gin.Context) {
	var req client.BookUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Synopsis != nil {
		updates["synopsis"] = *req.Synopsis
	}
	if req.NbVolume != nil {
		updates["nb_volume"] = *req.NbVolume
	}
	if req.ImgURL != nil {
		updates["img_url"] = *req.ImgURL
	}
	for column, value := range map[string]*string{"date_start": req.DateStart, "date_end": req.DateEnd} {
		if value == nil {
			continue
		}
		if *value != "" {
			if _, err := time.Parse(dateLayout, *value); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s, expected YYYY-MM-DD", column)})
				return
			}
		}
		updates[column] = *value
	}

	book, ok := s.findBook(c)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(book).Updates(updates).Error; err != nil {
				return err
			}
		}
		if len(req.Tags) > 0 {
			tags, err := resolveTags(tx, req.Tags)
			if err != nil {
				return err
			}
			if err := tx.Model(book).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		if len(req.Authors) > 0 {
			authors, err := resolveAuthors(tx, req.Authors)
			if err != nil {
				return err
			}
			if err := tx.Model(book).Association("Authors").Replace(authors); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var unknown *unknownRefError
		if errors.As(err, &unknown) {
			c.JSON(http.StatusBadRequest, gin.H{"error": unknown.Error()})
			return
		}
		s.logger.Error().Err(err).Int64("book_id", book.ID).Msg("Failed to update book")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update book"})
		return
	}

	var updated Book
	if err := withAssociations(s.db).First(&updated, book.ID).Error; err != nil {
		s.logger.Error().Err(err).Int64("book_id", book.ID).Msg("Failed to reload book")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Int64("book_id", book.ID).Msg("Book updated")
	s.respondWithBook(c, updated)
}

// @Summary Delete book
// @Description Removes the book with its readings, comments and tag and
// @Description author links.
// @Tags books
// @Param id path int true "Book ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/books/{id} [delete]
func (s *Server) deleteBook(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"comments", "readings", "book_tags", "book_authors"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE book_id = ?", id).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		result := tx.Delete(&Book{}, id)
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("book_id", id).Msg("Failed to delete book")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete book"})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	s.logger.Info().Int64("book_id", id).Msg("Book deleted")
	c.Status(http.StatusNoContent)
}

// unknownRefError reports a tag or author ID that does not exist
type unknownRefError struct {
	kind string
	id   int64
}

func (e *unknownRefError) Error() string {
	return fmt.Sprintf("Unknown %s %d", e.kind, e.id)
}

// resolveTags maps references to stored tags. A reference with an ID must
// exist; one with only a name is created when missing.
func resolveTags(tx *gorm.DB, refs []client.Tag) ([]Tag, error) {
	tags := make([]Tag, 0, len(refs))
	for _, ref := range refs {
		var tag Tag
		if ref.ID > 0 {
			if err := tx.First(&tag, ref.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, &unknownRefError{kind: "tag", id: ref.ID}
				}
				return nil, err
			}
		} else if err := tx.Where(Tag{Name: strings.TrimSpace(ref.Name)}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// resolveAuthors is resolveTags for authors
func resolveAuthors(tx *gorm.DB, refs []client.Author) ([]Author, error) {
	authors := make([]Author, 0, len(refs))
	for _, ref := range refs {
		var author Author
		if ref.ID > 0 {
			if err := tx.First(&author, ref.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, &unknownRefError{kind: "author", id: ref.ID}
				}
				return nil, err
			}
		} else if err := tx.Where(Author{Name: strings.TrimSpace(ref.Name)}).FirstOrCreate(&author).Error; err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, nil
}
