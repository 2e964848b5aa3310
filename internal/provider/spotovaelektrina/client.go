package spotovaelektrina

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultURL is the public day-ahead price endpoint.
	DefaultURL = "https://spotovaelektrina.cz/api/v1/price/get-prices-json"

	// DefaultTimeout bounds the single upstream call.
	DefaultTimeout = 15 * time.Second
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=spotovaelektrina_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches the raw price payload from spotovaelektrina.cz.
type Client struct {
	// url is the full endpoint URL.
	url string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// timeout bounds a single Fetch, including reading the body.
	timeout time.Duration
	logger  *zap.Logger
}

// Option is a configuration option for the client.
type Option func(*Client)

// WithURL overrides the endpoint URL.
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithTimeout sets the per-fetch timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for fetch diagnostics. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client. Without options it talks to DefaultURL through
// http.DefaultClient with DefaultTimeout.
func New(options ...Option) *Client {
	c := &Client{
		url:        DefaultURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
	}
	c.header.Set("Accept", "application/json")
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return "spotovaelektrina.cz" }

// URL returns the configured endpoint.
func (c *Client) URL() string { return c.url }
