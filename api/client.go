// Package api is the gateway to the book-platform HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the platform API endpoint.
const DefaultBaseURL = "https://api.author.today"

const (
	maxResponseBytes = 8 << 20
	requestIDHeader  = "X-Request-ID"
)

// TokenSource supplies the bearer token for outgoing calls. It returns false
// when there is no usable session.
type TokenSource interface {
	BearerToken() (string, bool)
}

// Caller performs one API call. Client implements it; so does the auth
// service, which adds refresh-and-retry.
type Caller interface {
	Do(ctx context.Context, route Route, body any, out any) error
}

var _ Caller = (*Client)(nil)

// Client sends authorized JSON requests against a fixed base URL.
type Client struct {
	baseURL    *url.URL
	tokens     TokenSource
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a gateway for baseURL. tokens may be nil for unauthenticated use.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(apperrors.ErrInvalidConfiguration, "[api.New] invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		tokens:     tokens,
		httpClient: http.DefaultClient,
		userAgent:  "atreader",
		logger:     log.With().Str("component", "api").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do sends the request for route with an optional JSON body and decodes a 2xx
// response into out (when out is non-nil). A 401 yields an APIError matching
// ErrUnauthorized; other non-2xx statuses yield an APIError matching ErrServer.
// Do never retries.
func (c *Client) Do(ctx context.Context, route Route, body any, out any) error {
	req, err := c.newRequest(ctx, route, body)
	if err != nil {
		return err
	}

	requestID := req.Header.Get(requestIDHeader)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("route", route.Name).Str("request_id", requestID).Msg("Request failed")
		return &apperrors.NetworkError{Op: route.String(), Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &apperrors.NetworkError{Op: route.String(), Cause: errors.Wrap(err, "read body")}
	}

	c.logger.Debug().
		Str("route", route.Name).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ErrorFromResponse(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(apperrors.ErrMalformedResponse, "[Client.Do] %s: %v", route.Name, err)
	}
	return nil
}

// URL returns the absolute URL for route.
func (c *Client) URL(route Route) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + route.Path
	u.RawQuery = route.RawQuery()
	return &u
}

func (c *Client) newRequest(ctx context.Context, route Route, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(apperrors.ErrInvalidInput, "[Client.Do] encode %s body: %v", route.Name, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, c.URL(route).String(), reader)
	if err != nil {
		return nil, errors.Wrapf(apperrors.ErrInvalidInput, "[Client.Do] build %s request: %v", route.Name, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())

	if c.tokens != nil {
		if token, ok := c.tokens.BearerToken(); ok {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}
	return req, nil
}
