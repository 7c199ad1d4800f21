// Package ppal is a client for the Producer Pal tool server, which exposes
// an Ableton Live set over MCP. Each Client operation is one tools/call
// request; results are decoded and validated into model types.
package ppal

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where Producer Pal listens by default.
	DefaultBaseURL = "http://localhost:3350"
	// DefaultTimeout bounds each invocation when Config.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	endpointPath    = "/mcp"
	maxResponseSize = 8 << 20
)

// Config configures a Client.
type Config struct {
	// BaseURL is the tool server root; "/mcp" is appended. Defaults to
	// DefaultBaseURL.
	BaseURL string
	// Timeout bounds each invocation. Defaults to DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the pooled client. Its own Timeout is left as is.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Observer   Observer
}

// Client invokes Producer Pal tools. It holds no mutable state and is safe
// for concurrent use.
type Client struct {
	baseURL  string
	endpoint string
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
	observer Observer
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ppal: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("ppal: base url %q must use http or https", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("ppal: base url %q has no host", baseURL)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("ppal: timeout must not be negative, got %s", cfg.Timeout)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = sharedHTTPClientPool.client(timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}

	return &Client{
		baseURL:  baseURL,
		endpoint: baseURL + endpointPath,
		timeout:  timeout,
		http:     httpClient,
		logger:   logger,
		observer: observer,
	}, nil
}

// BaseURL returns the normalized server root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-invocation bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}
