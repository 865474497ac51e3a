package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dkuaegis/aegis-study-client/internal/metrics"
	"github.com/dkuaegis/aegis-study-client/pkg/config"
	apperrors "github.com/dkuaegis/aegis-study-client/pkg/errors"
)

const requestIDHeader = "X-Request-ID"

// Envelope mirrors the API's common response contract.
type Envelope struct {
	Data  json.RawMessage  `json:"data,omitempty"`
	Error *apperrors.Error `json:"error,omitempty"`
}

// Client issues JSON requests against the study platform API. Credentials
// travel as cookies; 401 responses flip the shared AuthState before the error
// is returned. Non-2xx responses become typed *errors.Error values carrying
// the response status for downstream branching. There is no automatic retry.
type Client struct {
	base          string
	sessionCookie string
	http          *http.Client
	auth          *AuthState
	metrics       *metrics.Recorder
	logger        *zap.Logger
}

// New constructs a Client from configuration.
func New(cfg config.APIConfig, auth *AuthState, rec *metrics.Recorder, logger *zap.Logger) (*Client, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if auth == nil {
		auth = NewAuthState()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("build cookie jar: %w", err)
	}
	return &Client{
		base:          strings.TrimSuffix(cfg.BaseURL, "/"),
		sessionCookie: cfg.SessionCookie,
		http:          &http.Client{Timeout: cfg.Timeout, Jar: jar},
		auth:          auth,
		metrics:       rec,
		logger:        logger,
	}, nil
}

// Auth exposes the shared auth state.
func (c *Client) Auth() *AuthState {
	return c.auth
}

// Get issues a GET request and decodes the response data into dest.
func (c *Client) Get(ctx context.Context, path string, dest interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, dest)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, dest)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	target := c.base + "/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.sessionCookie != "" {
		req.Header.Set("Cookie", c.sessionCookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, path, 0, time.Since(start))
		return apperrors.Wrap(err, "NETWORK_ERROR", 0, "request failed")
	}
	defer resp.Body.Close() //nolint:errcheck
	c.metrics.ObserveRequest(method, path, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "read response body")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.auth.MarkUnauthorized()
		c.logger.Warn("session unauthorized",
			zap.String("method", method),
			zap.String("path", path))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFrom(resp.StatusCode, raw)
	}

	if dest == nil || len(raw) == 0 {
		return nil
	}

	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		raw = envelope.Data
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "decode response body")
	}
	return nil
}

// errorFrom converts a non-2xx response into a typed error, preferring the
// server's own error payload when one is present.
func (c *Client) errorFrom(status int, raw []byte) error {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		e := envelope.Error
		return &apperrors.Error{Code: e.Code, Status: status, Message: e.Message}
	}
	message := http.StatusText(status)
	if message == "" {
		message = "request failed"
	}
	return apperrors.New("API_ERROR", status, message)
}
