// Package backend is the REST client for the brokerage API.
// DTOs are mapped into domain types at this boundary and never leak past it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/brokerdesk/admin-console/internal/errors"
)

// ErrUnauthorized marks a 401/403 answer to an authenticated call.
var ErrUnauthorized = errors.New("backend rejected bearer token")

const maxErrorBody = 64 << 10

// Observer receives one sample per backend call.
type Observer interface {
	ObserveBackendCall(op, result string, d time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; its Transport is reused under the bearer transport
	Logger     *slog.Logger
	Observer   Observer
}

// Client talks to the REST backend. It is safe for concurrent use.
type Client struct {
	base     *url.URL
	baseRT   http.RoundTripper
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("backend: base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", cfg.BaseURL)
	}

	rt := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		rt = cfg.HTTPClient.Transport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{base: u, baseRT: rt, timeout: timeout, logger: logger, observer: cfg.Observer}, nil
}

// httpClient returns a client that injects token as a Bearer header.
// An empty token yields an unauthenticated client (used by login).
func (c *Client) httpClient(token string) *http.Client {
	if token == "" {
		return &http.Client{Transport: c.baseRT, Timeout: c.timeout}
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: c.baseRT},
		Timeout:   c.timeout,
	}
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// call describes one JSON request.
type call struct {
	op     string
	method string
	path   string
	token  string
	body   any // JSON-encoded when non-nil
	out    any // JSON-decoded when non-nil

	// raw overrides body with a pre-encoded payload (multipart uploads).
	raw         io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, cl call) error {
	start := time.Now()
	err := c.roundTrip(ctx, cl)
	c.observe(cl.op, err, time.Since(start))
	if err != nil {
		c.logger.DebugContext(ctx, "backend call failed",
			slog.String("op", cl.op),
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.Any("error", err),
		)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, cl call) error {
	var body io.Reader
	contentType := cl.contentType
	switch {
	case cl.raw != nil:
		body = cl.raw
	case cl.body != nil:
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "%s: encode request", cl.op)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.endpoint(cl.path), body)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "%s: build request", cl.op)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient(cl.token).Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return apperrors.Wrapf(err, apperrors.ErrCodeCanceled, "%s: request canceled", cl.op)
		}
		if ctx.Err() != nil || isTimeout(err) {
			return apperrors.Wrapf(err, apperrors.ErrCodeTimeout, "%s: backend timeout", cl.op)
		}
		return apperrors.Wrapf(err, apperrors.ErrCodeBackend, "%s: backend unreachable", cl.op)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(cl, resp)
	}
	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeBackend, "%s: decode response", cl.op)
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
}

// StatusError records a non-2xx backend reply. It is the cause of the
// AppError statusError returns.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (c *Client) statusError(cl call, resp *http.Response) error {
	var eb errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(data, &eb)
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	se := &StatusError{Method: cl.method, Path: cl.path, Status: resp.StatusCode, Message: msg}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.SessionExpired(fmt.Errorf("%w: %w", ErrUnauthorized, se))
	case http.StatusNotFound:
		return &apperrors.AppError{Code: apperrors.ErrCodeNotFound, Message: msg, Cause: se}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		// The backend's own validation messages are meant for the user.
		return &apperrors.AppError{Code: apperrors.ErrCodeValidation, Message: msg, Cause: se}
	default:
		return apperrors.Wrapf(se, apperrors.ErrCodeBackend, "%s failed", cl.op)
	}
}

func (c *Client) observe(op string, err error, d time.Duration) {
	if c.observer == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(apperrors.GetCode(err))
		if result == "" {
			result = "error"
		}
	}
	c.observer.ObserveBackendCall(op, result, d)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func escape(id string) string {
	return url.PathEscape(id)
}

// Ping reports whether the backend answers HTTP at all. Auth and lookup
// rejections still prove the API is up, so only transport and 5xx failures
// are returned.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, call{op: "ping", method: http.MethodGet, path: "/admin/dashboard"})
	switch apperrors.GetCode(err) {
	case "", apperrors.ErrCodeSessionExpired, apperrors.ErrCodeNotFound, apperrors.ErrCodeValidation:
		return nil
	default:
		return err
	}
}
