package httpx

import (
	"maps"
	"net"
	"net/http"
	"time"

	"spotprices/internal/config"
)

// Client is a small wrapper around http.Client with sane defaults.
// It satisfies the HTTPClient interfaces used by the provider packages.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string
}

// New returns a client whose overall request timeout is timeout. The transport
// timeouts are capped so a slow handshake cannot eat the whole budget.
func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}, UserAgent: "spot-prices/1.0"}
}

// FromConfig builds the upstream client: timeout, User-Agent and extra
// headers all come from cfg.
func FromConfig(cfg config.Upstream) *Client {
	c := New(cfg.Timeout())
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.Headers = maps.Clone(cfg.Headers)
	return c
}

// Do fills in the default User-Agent and extra headers unless the request
// already carries them.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.HTTP.Do(req)
}
