package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// allBooksPageSize is the page size used to fetch the whole catalogue at once
const allBooksPageSize = 1000

// Tag represents a book tag
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Author represents a book author
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Book represents a book with its catalogue data and reading statistics
type Book struct {
	ID                    int64    `json:"id"`
	Name                  string   `json:"name"`
	Synopsis              string   `json:"synopsis,omitempty"`
	DateStart             string   `json:"dateStart"`
	DateEnd               string   `json:"dateEnd,omitempty"`
	NbVolume              int      `json:"nbVolume"`
	Note                  *float64 `json:"note,omitempty"`
	NbVisit               *int64   `json:"nbVisit,omitempty"`
	ImgURL                string   `json:"imgUrl,omitempty"`
	Tags                  []Tag    `json:"tags"`
	Authors               []Author `json:"authors"`
	CreatedAt             string   `json:"createdAt,omitempty"`
	ModifiedAt            string   `json:"modifiedAt,omitempty"`
	TotalUsers            *int64   `json:"totalUsers,omitempty"`
	UsersInProgress       *int64   `json:"usersInProgress,omitempty"`
	UsersCompleted        *int64   `json:"usersCompleted,omitempty"`
	UsersNotStarted       *int64   `json:"usersNotStarted,omitempty"`
	AverageVolume         *float64 `json:"averageVolume,omitempty"`
	AverageProgress       *float64 `json:"averageProgress,omitempty"`
	CompletionRate        *float64 `json:"completionRate,omitempty"`
	ActiveUsersLast7Days  *int64   `json:"activeUsersLast7Days,omitempty"`
	ActiveUsersLast30Days *int64   `json:"activeUsersLast30Days,omitempty"`
	EngagementTrend       *float64 `json:"engagementTrend,omitempty"`
	NewReadersThisMonth   *int64   `json:"newReadersThisMonth,omitempty"`
}

// BookFilter is the body of a book listing request
type BookFilter struct {
	Tags        []string `json:"tags,omitempty"`
	Search      string   `json:"search,omitempty"`
	DateFrom    string   `json:"dateFrom,omitempty"`
	DateTo      string   `json:"dateTo,omitempty"`
	Author      string   `json:"author,omitempty"`
	IsCompleted *bool    `json:"isCompleted,omitempty"`
	MinVolumes  *int     `json:"minVolumes,omitempty" validate:"omitempty,gte=0"`
	MaxVolumes  *int     `json:"maxVolumes,omitempty" validate:"omitempty,gte=0"`
	MinRating   *float64 `json:"minRating,omitempty" validate:"omitempty,gte=0,lte=10"`
	MaxRating   *float64 `json:"maxRating,omitempty" validate:"omitempty,gte=0,lte=10"`
}

// BookPage is one page of books
type BookPage struct {
	Content       []Book `json:"content"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	CurrentPage   int    `json:"currentPage"`
	Size          int    `json:"size"`
}

// BookUpdate carries the fields to change; nil fields are left untouched
type BookUpdate struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Synopsis  *string  `json:"synopsis,omitempty"`
	DateStart *string  `json:"dateStart,omitempty"`
	DateEnd   *string  `json:"dateEnd,omitempty"`
	NbVolume  *int     `json:"nbVolume,omitempty" validate:"omitempty,gte=0"`
	ImgURL    *string  `json:"imgUrl,omitempty" validate:"omitempty,url"`
	Tags      []Tag    `json:"tags,omitempty"`
	Authors   []Author `json:"authors,omitempty"`
}

// IsZero reports whether the update changes nothing
func (u BookUpdate) IsZero() bool {
	return u.Name == nil && u.Synopsis == nil && u.DateStart == nil && u.DateEnd == nil &&
		u.NbVolume == nil && u.ImgURL == nil && len(u.Tags) == 0 && len(u.Authors) == 0
}

// ListBooks returns one page of books matching filter
func (c *Client) ListBooks(ctx context.Context, filter BookFilter, page, size int) (*BookPage, error) {
	if err := validate.Struct(filter); err != nil {
		return nil, fmt.Errorf("invalid book filter: %w", err)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	var books BookPage
	err := c.execute(ctx, apiRequest{
		op:      "list books",
		method:  http.MethodPost,
		path:    EndpointBooks,
		query:   query,
		body:    filter,
		respObj: &books,
	})
	if err != nil {
		return nil, err
	}
	return &books, nil
}

// AllBooks returns the whole catalogue in a single request
func (c *Client) AllBooks(ctx context.Context) ([]Book, error) {
	page, err := c.ListBooks(ctx, BookFilter{}, 0, allBooksPageSize)
	if err != nil {
		return nil, err
	}
	return page.Content, nil
}

// GetBook returns a book by ID
func (c *Client) GetBook(ctx context.Context, id int64) (*Book, error) {
	var book Book
	err := c.execute(ctx, apiRequest{
		op:      "get book",
		method:  http.MethodGet,
		path:    pathWithID(EndpointBooks, id),
		respObj: &book,
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook applies update to a book and returns the stored result
func (c *Client) UpdateBook(ctx context.Context, id int64, update BookUpdate) (*Book, error) {
	if err := validate.Struct(update); err != nil {
		return nil, fmt.Errorf("invalid book update: %w", err)
	}

	var book Book
	err := c.execute(ctx, apiRequest{
		op:      "update book",
		method:  http.MethodPut,
		path:    pathWithID(EndpointBooks, id),
		body:    update,
		respObj: &book,
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book together with its readings and comments
func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.execute(ctx, apiRequest{
		op:     "delete book",
		method: http.MethodDelete,
		path:   pathWithID(EndpointBooks, id),
	})
}

// SearchBooks runs a free-text search over the catalogue
func (c *Client) SearchBooks(ctx context.Context, q string) ([]Book, error) {
	query := url.Values{}
	query.Set("q", q)

	var books []Book
	err := c.execute(ctx, apiRequest{
		op:      "search books",
		method:  http.MethodGet,
		path:    EndpointBooksSearch,
		query:   query,
		respObj: &books,
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}
