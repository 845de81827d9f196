package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apierrors "github.com/diogo/lmchat/internal/errors"
	"github.com/diogo/lmchat/internal/logging"
	"github.com/diogo/lmchat/internal/models"
)

// HTTPDoer is the part of tls_client.HttpClient the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// idleCloser is implemented by tls_client.HttpClient
type idleCloser interface {
	CloseIdleConnections()
}

// DefaultUserAgent is sent with every request unless overridden
const DefaultUserAgent = "lmchat/0.1"

// Client talks to the chat server's /api endpoints
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	userAgent  string
	logger     *zap.Logger
	mu         sync.RWMutex
	closed     bool
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithBaseURL sets the server root, e.g. http://127.0.0.1:5000
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout bounds each request. Zero (the default) waits until the
// transport completes or fails.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the tls-client transport
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new Client
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		baseURL:   models.DefaultBaseURL,
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.OrNop(client.logger)

	if client.httpClient == nil {
		// Timeout is enforced per request through the context, so the
		// transport itself must not impose tls-client's 30s default.
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(0),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// BaseURL returns the configured server root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections; later calls fail with ErrClientClosed
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if ic, ok := c.httpClient.(idleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// do performs one request and reads the whole body. Any failure before a
// status code is available is returned as a TransportError.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	if c.IsClosed() {
		return 0, nil, apierrors.NewTransportError(path, apierrors.ErrClientClosed)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, apierrors.NewTransportError(path, fmt.Errorf("failed to create request: %w", err))
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return 0, nil, apierrors.NewTransportError(path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("failed to read response body", zap.Int("status", resp.StatusCode), zap.Error(err))
		return 0, nil, apierrors.NewTransportError(path, fmt.Errorf("failed to read response: %w", err))
	}

	log.Debug("request completed",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return resp.StatusCode, data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
