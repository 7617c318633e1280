package client

import (
	"context"
	"net/http"
)

// EntityCount is a name with a reader count (top authors, top tags)
type EntityCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// BookTrend is a book with its engagement delta
type BookTrend struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Delta  float64 `json:"delta"`
	ImgURL string  `json:"imgUrl,omitempty"`
}

// AdminStats is the dashboard summary
type AdminStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	NewUsersDay   int64 `json:"newUsersDay"`
	NewUsersWeek  int64 `json:"newUsersWeek"`
	NewUsersMonth int64 `json:"newUsersMonth"`

	DAU int64 `json:"dau"`
	WAU int64 `json:"wau"`
	MAU int64 `json:"mau"`

	TotalBooks    int64 `json:"totalBooks"`
	NewBooksDay   int64 `json:"newBooksDay"`
	NewBooksWeek  int64 `json:"newBooksWeek"`
	NewBooksMonth int64 `json:"newBooksMonth"`

	TopBooksByVisits  []Book      `json:"topBooksByVisits"`
	TopBooksByReaders []Book      `json:"topBooksByReaders"`
	TrendingBooks     []BookTrend `json:"trendingBooks"`
	TopBooksByRating  []Book      `json:"topBooksByRating"`

	TopAuthorsByReaders []EntityCount `json:"topAuthorsByReaders"`
	TopTagsByReaders    []EntityCount `json:"topTagsByReaders"`
}

// AdminStats returns the dashboard summary
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	err := c.execute(ctx, apiRequest{
		op:      "get stats",
		method:  http.MethodGet,
		path:    EndpointStats,
		respObj: &stats,
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
