// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/jeranaias/botline/internal/config"
	"github.com/jeranaias/botline/internal/logging"
	"github.com/jeranaias/botline/internal/storage"
)

const (
	// DefaultTimeout bounds a request when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the largest response body the client will read.
	MaxResponseSize = 10 * 1024 * 1024

	// RequestIDHeader carries a per-request uuid for correlating logs.
	RequestIDHeader = "X-Request-ID"
)

// =============================================================================
// RESPONSE
// =============================================================================

// Response is a successful (2xx) response with its body read into memory.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the whole body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// DecodePath unmarshals the value at a gjson path into v. It reports false
// when the path does not exist.
func (r *Response) DecodePath(path string, v any) (bool, error) {
	res := gjson.GetBytes(r.Body, path)
	if !res.Exists() {
		return false, nil
	}
	if err := json.Unmarshal([]byte(res.Raw), v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}

// Get returns the value at a gjson path.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends requests to the chat backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      storage.Store
	log        logrus.FieldLogger
	limiter    *rate.Limiter
	userAgent  string

	mu             sync.RWMutex
	headers        http.Header
	onUnauthorized []func()
}

// NewClient creates a client for baseURL whose bearer token lives in store.
func NewClient(baseURL string, store storage.Store) *Client {
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		store:      store,
		log:        logging.Discard(),
		userAgent:  "botline",
		headers: http.Header{
			"Accept":       {"application/json"},
			"Content-Type": {"application/json"},
		},
	}
	if token := c.Token(); token != "" {
		c.headers.Set("Authorization", "Bearer "+token)
	}
	return c
}

// FromConfig creates a client from the api section of cfg.
func FromConfig(cfg *config.Config, store storage.Store, logger logrus.FieldLogger) *Client {
	return NewClient(cfg.API.BaseURL, store).
		WithTimeout(cfg.Timeout()).
		WithRateLimit(cfg.API.RequestsPerSecond, cfg.API.Burst).
		WithLogger(logger)
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the logger used for request/response logging.
func (c *Client) WithLogger(logger logrus.FieldLogger) *Client {
	c.log = logging.OrDiscard(logger)
	return c
}

// WithRateLimit limits outgoing requests to rps per second. A non-positive
// rps removes the limit.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// TOKEN
// =============================================================================

// Token returns the persisted bearer token, or "" when none is stored or
// storage cannot be read.
func (c *Client) Token() string {
	if c.store == nil {
		return ""
	}
	token, ok, err := c.store.Get(storage.KeyToken)
	if err != nil || !ok {
		return ""
	}
	return token
}

// SetToken persists token and mirrors it into the default headers.
func (c *Client) SetToken(token string) error {
	if token == "" {
		return c.ClearToken()
	}
	if c.store != nil {
		if err := c.store.Set(storage.KeyToken, token); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
	}
	c.mu.Lock()
	c.headers.Set("Authorization", "Bearer "+token)
	c.mu.Unlock()
	return nil
}

// OnUnauthorized registers fn to run after a 401 has cleared the token.
// fn runs on the requesting goroutine with no client lock held.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

// ClearToken removes the persisted token and the default Authorization
// header.
func (c *Client) ClearToken() error {
	c.mu.Lock()
	c.headers.Del("Authorization")
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Remove(storage.KeyToken); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// DefaultHeader returns a default header value.
func (c *Client) DefaultHeader(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(name)
}

// =============================================================================
// REQUESTS
// =============================================================================

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST. body may be nil, a *Form, raw JSON bytes or any value
// that marshals to JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body)
}

// Delete issues a DELETE, optionally with a body.
func (c *Client) Delete(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, body)
}

// Do executes a request and returns the response for 2xx statuses.
//
// Any other status yields an *APIError. A 401 additionally clears the
// persisted token before returning.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: rate limit wait: %w", method, path, err)
		}
	}

	requestID := req.Header.Get(RequestIDHeader)
	entry := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})
	entry.Debug("api request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		entry.WithError(err).WithField("duration", time.Since(start)).Debug("api request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: reading body: %w", ErrNetwork, method, path, err)
	}
	if len(data) > MaxResponseSize {
		return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", method, path, ErrResponseTooLarge, MaxResponseSize)
	}

	entry.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("api response")

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.ClearToken(); err != nil {
			entry.WithError(err).Warn("failed to clear token after 401")
		}
		c.mu.RLock()
		hooks := append([]func(){}, c.onUnauthorized...)
		c.mu.RUnlock()
		for _, fn := range hooks {
			fn()
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(method, path, resp.StatusCode, data)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *Form:
		buf, ct, err := b.encode()
		if err != nil {
			return nil, err
		}
		reader, contentType = buf, ct
	case json.RawMessage:
		reader = bytes.NewReader(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	for k, v := range c.headers {
		if k == "Authorization" {
			continue
		}
		req.Header[k] = append([]string(nil), v...)
	}
	c.mu.RUnlock()

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	// The persisted token is authoritative; another process may have
	// changed it since the default header was set.
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())

	return req, nil
}
