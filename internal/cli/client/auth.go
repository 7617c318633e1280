package client

import (
	"context"
	"net/http"

	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// Login sends the admin credentials and returns the login payload. Any
// non-success status is returned as an *APIError; the session manager turns
// it into the generic authentication failure.
func (c *Client) Login(ctx context.Context, creds session.Credentials) (*session.LoginPayload, error) {
	var payload session.LoginPayload
	err := c.execute(ctx, apiRequest{
		op:      "login",
		method:  http.MethodPost,
		path:    EndpointLogin,
		body:    creds,
		respObj: &payload,
		public:  true,
	})
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// VerifyResponse represents the verify endpoint response
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// Verify asks the admin API whether token is still accepted
func (c *Client) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	var resp VerifyResponse
	err := c.execute(ctx, apiRequest{
		op:      "verify",
		method:  http.MethodGet,
		path:    EndpointVerify,
		respObj: &resp,
		token:   token,
	})
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}
