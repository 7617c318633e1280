package client

import (
	"context"
	"net/http"
)

// Comment represents a reader comment on a book
type Comment struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	UserID    int64  `json:"userId"`
	BookID    int64  `json:"bookId"`
	BookName  string `json:"bookName,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// DeleteComment removes a comment by ID
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.execute(ctx, apiRequest{
		op:     "delete comment",
		method: http.MethodDelete,
		path:   pathWithID(EndpointComments, id),
	})
}
