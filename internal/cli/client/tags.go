package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type tagRequest struct {
	Name string `json:"name"`
}

// ListTags returns every tag
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	err := c.execute(ctx, apiRequest{
		op:      "list tags",
		method:  http.MethodGet,
		path:    EndpointTags,
		respObj: &tags,
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTag creates a tag
func (c *Client) CreateTag(ctx context.Context, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tag name is required")
	}

	var tag Tag
	err := c.execute(ctx, apiRequest{
		op:      "create tag",
		method:  http.MethodPost,
		path:    EndpointTags,
		body:    tagRequest{Name: name},
		respObj: &tag,
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// UpdateTag renames a tag
func (c *Client) UpdateTag(ctx context.Context, id int64, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tag name is required")
	}

	var tag Tag
	err := c.execute(ctx, apiRequest{
		op:      "update tag",
		method:  http.MethodPut,
		path:    pathWithID(EndpointTags, id),
		body:    tagRequest{Name: name},
		respObj: &tag,
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag removes a tag
func (c *Client) DeleteTag(ctx context.Context, id int64) error {
	return c.execute(ctx, apiRequest{
		op:     "delete tag",
		method: http.MethodDelete,
		path:   pathWithID(EndpointTags, id),
	})
}
