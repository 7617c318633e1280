package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// Header names sent on every request
const (
	HeaderAPIKey    = "API-KEY"
	HeaderRequestID = "X-Request-ID"
)

const maxErrorBody = 64 * 1024

var validate = validator.New()

// SessionHandle is the part of the session manager the client needs: the
// current token, and a way to end the session when the API rejects it.
type SessionHandle interface {
	GetToken() (string, bool)
	Logout() error
}

// Client represents an HTTP client for the admin API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	session    SessionHandle
	logger     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithInsecureTLS skips certificate verification (self-signed dev servers)
func WithInsecureTLS(insecure bool) Option {
	return func(c *Client) {
		if !insecure {
			return
		}
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSession attaches the session whose token authenticates requests
func WithSession(s SessionHandle) Option {
	return func(c *Client) {
		c.session = s
	}
}

// New creates a new API client
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// SetSession attaches the session after construction. The session manager
// needs the client as its authenticator, so one of them is wired late.
func (c *Client) SetSession(s SessionHandle) {
	c.session = s
}

// BaseURL returns the admin API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

type apiRequest struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        interface{}
	successCode int
	respObj     interface{}
	// public requests carry no bearer token (login)
	public bool
	// token overrides the session token; such requests never trigger logout
	token string
}

func (c *Client) execute(ctx context.Context, apiReq apiRequest) error {
	fromSession := !apiReq.public && apiReq.token == ""

	token := apiReq.token
	if fromSession {
		if c.session == nil {
			return fmt.Errorf("%s: %w", apiReq.op, session.ErrNotAuthenticated)
		}
		t, ok := c.session.GetToken()
		if !ok {
			return fmt.Errorf("%s: %w", apiReq.op, session.ErrNotAuthenticated)
		}
		token = t
	}

	var reqBody io.Reader
	if apiReq.body != nil {
		jsonData, err := json.Marshal(apiReq.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, apiReq.method, c.baseURL+apiReq.path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if len(apiReq.query) > 0 {
		req.URL.RawQuery = apiReq.query.Encode()
	}

	requestID := ulid.Make().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAPIKey, c.apiKey)
	req.Header.Set(HeaderRequestID, requestID)
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	log := c.logger.With().
		Str("op", apiReq.op).
		Str("method", apiReq.method).
		Str("path", apiReq.path).
		Str("request_id", requestID).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("Admin API request failed")
		return &session.NetworkError{Op: apiReq.op, Err: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Admin API request completed")

	if !isSuccess(resp.StatusCode, apiReq.successCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		if resp.StatusCode == http.StatusUnauthorized && fromSession {
			log.Info().Msg("Admin API rejected the session token; logging out")
			if err := c.session.Logout(); err != nil {
				log.Warn().Err(err).Msg("Failed to clear credential store")
			}
			return &session.SessionExpiredError{Op: apiReq.op}
		}

		return newAPIError(apiReq.op, resp.StatusCode, body)
	}

	if apiReq.respObj == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(apiReq.respObj); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func isSuccess(status, expected int) bool {
	if expected != 0 {
		return status == expected
	}
	return status >= 200 && status < 300
}

func pathWithID(base string, id int64) string {
	return fmt.Sprintf("%s/%d", base, id)
}
