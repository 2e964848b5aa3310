package spotovaelektrina

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"spotprices/internal/provider"
)

// maxBody caps the payload; a full day of hourly prices is a few KiB.
const maxBody = 4 << 20

var (
	errMalformedJSON = errors.New("malformed JSON body")
	errBodyTooLarge  = errors.New("response body too large")
)

// Fetch performs a single GET against the endpoint. Every failure is returned
// as a *provider.TransportError; there are no retries.
func (c *Client) Fetch(ctx context.Context) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, c.transportErr(0, fmt.Errorf("creating request: %w", err))
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		// Prefer the context error so callers can match on DeadlineExceeded.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, c.transportErr(0, fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return nil, c.transportErr(res.StatusCode, fmt.Errorf("unexpected status: %s", msg))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody+1))
	if err != nil {
		return nil, c.transportErr(res.StatusCode, fmt.Errorf("reading body: %w", err))
	}
	if len(body) > maxBody {
		return nil, c.transportErr(res.StatusCode, errBodyTooLarge)
	}
	if !gjson.ValidBytes(body) {
		return nil, c.transportErr(res.StatusCode, errMalformedJSON)
	}

	c.logger.Debug("fetched upstream prices",
		zap.String("url", c.url),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)),
	)
	return json.RawMessage(body), nil
}

func (c *Client) transportErr(status int, err error) error {
	return &provider.TransportError{Op: http.MethodGet, URL: c.url, StatusCode: status, Err: err}
}
