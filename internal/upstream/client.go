package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dicri-platform/casefile-gateway/pkg/config"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

// RequestObserver receives timing data for upstream calls.
type RequestObserver interface {
	ObserveUpstreamRequest(method, path string, status int, duration time.Duration)
}

// Client performs authenticated requests against the legacy case-file API.
// Every call forwards the caller's bearer token unchanged; the client itself
// holds no credentials.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics RequestObserver
}

// NewClient builds a Client with an explicit timeout. Requests that exceed
// it surface as upstream errors rather than hanging the caller.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger, metrics RequestObserver) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// errorBody is the optional payload legacy endpoints return on failure.
type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body interface{}) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)

	if err != nil {
		if c.metrics != nil {
			c.metrics.ObserveUpstreamRequest(method, path, 0, duration)
		}
		c.logger.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.ObserveUpstreamRequest(method, path, resp.StatusCode, duration)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to read upstream response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp.StatusCode, raw)
	}

	return raw, nil
}

// statusError maps a non-2xx response to the error taxonomy, surfacing the
// server-provided message verbatim when one is present.
func (c *Client) statusError(status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)

	switch {
	case status == http.StatusNotFound:
		if body.Message != "" {
			return appErrors.Clone(appErrors.ErrNotFound, body.Message)
		}
		return appErrors.ErrNotFound
	default:
		message := body.Message
		if message == "" {
			message = fmt.Sprintf("upstream responded with status %d", status)
		}
		return appErrors.Clone(appErrors.ErrUpstream, message)
	}
}
