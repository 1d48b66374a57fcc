// Package api is the HTTP client for the geotask REST API. Authentication is
// carried by an injected types.Session: every request reads the token from
// it, and a 401 response clears it.
package api

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
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/geotask/internal/logging"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

const (
	// DefaultTimeout for HTTP requests
	DefaultTimeout = 30 * time.Second
	// RequestIDHeader carries a per-request UUID for server-side correlation.
	RequestIDHeader = "X-Request-ID"
)

// Client errors.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoBaseURL    = errors.New("api base URL is required")
	ErrNoSession    = errors.New("api client needs a session")
)

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Message    string
	// AuthError is set for 401 responses. The session has already been
	// cleared when the caller sees it.
	AuthError bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Is lets callers test with errors.Is(err, ErrUnauthorized) and
// errors.Is(err, types.ErrNotFound).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.AuthError
	case types.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport. Its Timeout is left as set.
	HTTPClient *http.Client
}

// Client talks to the task API.
type Client struct {
	baseURL string
	http    *http.Client
	session types.Session
	log     *logrus.Entry
}

// New creates a Client. A nil log discards output.
func New(cfg Config, session types.Session, log *logrus.Entry) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, ErrNoBaseURL
	}
	if session == nil {
		return nil, ErrNoSession
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = logging.Discard().Component("api")
	}
	return &Client{baseURL: base, http: hc, session: session, log: log}, nil
}

// Session returns the session the client authenticates with.
func (c *Client) Session() types.Session {
	return c.session
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

// sendJSON marshals body and sends it with method.
func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, nil, r, "application/json", out)
}

// do performs the request, maps error statuses to *Error and decodes a
// successful body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	token, err := c.session.Token()
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	fields := logrus.Fields{
		"method":     method,
		"url":        u,
		"request_id": requestID,
	}
	c.log.WithFields(fields).WithField("has_token", token != "").Debug("Making HTTP request")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(fields).WithError(err).Debug("HTTP request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(fields).WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"elapsed":     time.Since(start),
	}).Debug("HTTP request completed")

	if resp.StatusCode >= 400 {
		return c.responseError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// responseError builds an *Error from an error response. A 401 clears the
// session first.
func (c *Client) responseError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp)}
	if resp.StatusCode == http.StatusUnauthorized {
		apiErr.AuthError = true
		if err := c.session.Clear(); err != nil {
			c.log.WithError(err).Warn("clearing session after 401")
		} else {
			c.log.Info("session cleared after 401")
		}
	}
	return apiErr
}

// errorMessage extracts {"error": ...} or {"message": ...} from the body,
// falling back to the status text.
func errorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(data, &body) == nil {
		for _, m := range []string{body.Error, body.Message, body.Msg} {
			if m != "" {
				return m
			}
		}
	}
	if s := strings.TrimSpace(string(data)); s != "" && len(s) < 200 && !strings.HasPrefix(s, "<") {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
