package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// User is an account as returned by the admin API. It shares its shape with
// the record persisted for the signed-in admin.
type User = session.UserRecord

// UserFilter narrows ListUsers; empty fields are not sent
type UserFilter struct {
	Search        string
	Role          string
	CreatedAfter  string
	CreatedBefore string
}

// UserUpdate holds the account fields to change. Nil fields are left as they
// are; Roles, when set, replaces the current roles.
type UserUpdate struct {
	DisplayName     *string  `json:"displayName,omitempty" validate:"omitempty,min=1,max=100"`
	Email           *string  `json:"email,omitempty" validate:"omitempty,email"`
	Roles           []string `json:"roles,omitempty" validate:"omitempty,dive,required"`
	ProfileImageURL *string  `json:"profileImageUrl,omitempty" validate:"omitempty,url"`
}

// IsZero reports whether the update changes nothing
func (u UserUpdate) IsZero() bool {
	return u.DisplayName == nil && u.Email == nil && len(u.Roles) == 0 && u.ProfileImageURL == nil
}

// UserPage is one page of users
type UserPage struct {
	Content       []User `json:"content"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
	First         bool   `json:"first"`
	Last          bool   `json:"last"`
}

// ListUsers returns one page of users matching filter
func (c *Client) ListUsers(ctx context.Context, page, size int, filter UserFilter) (*UserPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Role != "" {
		query.Set("role", filter.Role)
	}
	if filter.CreatedAfter != "" {
		query.Set("createdAfter", filter.CreatedAfter)
	}
	if filter.CreatedBefore != "" {
		query.Set("createdBefore", filter.CreatedBefore)
	}

	var users UserPage
	err := c.execute(ctx, apiRequest{
		op:      "list users",
		method:  http.MethodGet,
		path:    EndpointUsers,
		query:   query,
		respObj: &users,
	})
	if err != nil {
		return nil, err
	}
	return &users, nil
}

// GetUser returns a user by ID
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	err := c.execute(ctx, apiRequest{
		op:      "get user",
		method:  http.MethodGet,
		path:    pathWithID(EndpointUsers, id),
		respObj: &user,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUserComments returns the comments written by a user
func (c *Client) ListUserComments(ctx context.Context, userID int64) ([]Comment, error) {
	var comments []Comment
	err := c.execute(ctx, apiRequest{
		op:      "list user comments",
		method:  http.MethodGet,
		path:    pathWithID(EndpointUsers, userID) + "/comments",
		respObj: &comments,
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateUser applies update to a user and returns the stored result
func (c *Client) UpdateUser(ctx context.Context, id int64, update UserUpdate) (*User, error) {
	if err := validate.Struct(update); err != nil {
		return nil, fmt.Errorf("invalid user update: %w", err)
	}

	var user User
	err := c.execute(ctx, apiRequest{
		op:      "update user",
		method:  http.MethodPut,
		path:    pathWithID(EndpointUsers, id),
		body:    update,
		respObj: &user,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user together with their readings and comments
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.execute(ctx, apiRequest{
		op:     "delete user",
		method: http.MethodDelete,
		path:   pathWithID(EndpointUsers, id),
	})
}
