// Package client is the REST client for the security-testing backend. A single
// Client is shared by the APIs, Tests, Results and Users services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultServer     = "http://localhost:8000"
	DefaultPrefix     = "api"
	DefaultAuthScheme = "Token"
	DefaultTimeout    = 30 * time.Second

	maxResponseSize = 10 * 1024 * 1024
)

// TokenSource supplies the auth token. It is consulted on every request.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

type Options struct {
	Server     string
	Prefix     string
	Timeout    time.Duration
	AuthScheme string
	UserAgent  string
	Tokens     TokenSource
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

type Client struct {
	httpClient *http.Client
	server     string
	prefix     string
	authScheme string
	userAgent  string
	tokens     TokenSource
	limiter    *rate.Limiter

	APIs    *APIsService
	Tests   *TestsService
	Results *ResultsService
	Users   *UsersService
}

func New(opts Options) (*Client, error) {
	server := opts.Server
	if server == "" {
		server = DefaultServer
	}
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", server, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: must be an absolute http(s) url", server)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	authScheme := opts.AuthScheme
	if authScheme == "" {
		authScheme = DefaultAuthScheme
	}

	prefix := strings.Trim(opts.Prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}

	c := &Client{
		httpClient: httpClient,
		server:     strings.TrimRight(u.String(), "/"),
		prefix:     prefix,
		authScheme: authScheme,
		userAgent:  opts.UserAgent,
		tokens:     opts.Tokens,
		limiter:    limiter,
	}
	c.APIs = &APIsService{client: c}
	c.Tests = &TestsService{client: c}
	c.Results = &ResultsService{client: c}
	c.Users = &UsersService{client: c}
	return c, nil
}

// Server returns the normalized server root.
func (c *Client) Server() string {
	return c.server
}

// resourcePath builds a prefixed route such as "api/apis/3/".
func (c *Client) resourcePath(segments ...any) string {
	return c.prefix + "/" + c.rootPath(segments...)
}

// rootPath builds a route relative to the server root such as "run-tests/3/".
func (c *Client) rootPath(segments ...any) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		part := strings.Trim(fmt.Sprint(s), "/")
		if part != "" {
			parts = append(parts, url.PathEscape(part))
		}
	}
	return strings.Join(parts, "/") + "/"
}

func (c *Client) endpoint(path string) string {
	return c.server + "/" + strings.TrimLeft(path, "/")
}

// do sends a JSON request and decodes a successful response body into out.
// Empty bodies leave out untouched.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return unexpectedError(0, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", c.authScheme+" "+token)
		}
	}

	logger := log.With().
		Str("component", "client").
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		logger.Debug().Err(err).Dur("duration", time.Since(start)).Msg("Request failed without response")
		return noResponseError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return unexpectedError(resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}
	logger.Debug().Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Int("size", len(data)).Msg("API request")

	if resp.StatusCode >= http.StatusBadRequest {
		return newResponseError(resp.StatusCode, data)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return unexpectedError(resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return unexpectedError(resp.StatusCode, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

type envelope[T any] struct {
	Data    T       `json:"data"`
	Message *string `json:"message"`
}

// getData performs a request whose response is wrapped in the {"data", "message"} envelope.
func getData[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var env envelope[T]
	if err := c.do(ctx, method, path, body, &env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// getObject performs a request whose response is a single object, either bare
// or wrapped in the envelope. The backend wraps reads but not writes.
func getObject[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	var raw json.RawMessage
	if err := c.do(ctx, method, path, body, &raw); err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(raw, &env) == nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		raw = env.Data
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, unexpectedError(http.StatusOK, fmt.Errorf("decoding response: %w", err))
	}
	return out, nil
}

func validID(kind string, id int) error {
	if id <= 0 {
		return fmt.Errorf("invalid %s id: %d", kind, id)
	}
	return nil
}
