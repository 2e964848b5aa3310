package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// PriceRecord is the normalized hourly shape returned to clients.
type PriceRecord struct {
	Hour      int     `json:"hour"`
	SpotPrice float64 `json:"spotPrice"`
	Timestamp string  `json:"timestamp"`
}

// NewPriceRecord builds a record for the given calendar date (YYYY-MM-DD).
func NewPriceRecord(date string, hour int, price float64) PriceRecord {
	return PriceRecord{
		Hour:      hour,
		SpotPrice: price,
		Timestamp: fmt.Sprintf("%sT%02d:00:00Z", date, hour),
	}
}

// Day is the client-facing date selector.
type Day string

const (
	Today    Day = "today"
	Tomorrow Day = "tomorrow"
)

const dateLayout = "2006-01-02"

// ParseDay maps a path parameter to a Day. Anything unrecognized is Today.
func ParseDay(s string) Day {
	if Day(s) == Tomorrow {
		return Tomorrow
	}
	return Today
}

// Date resolves the day to a calendar date in now's location.
func (d Day) Date(now time.Time) string {
	if d == Tomorrow {
		now = now.AddDate(0, 0, 1)
	}
	return now.Format(dateLayout)
}

// Fetcher retrieves the raw day-ahead price payload from an upstream provider.
// The payload is valid JSON of unspecified top-level shape.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (json.RawMessage, error)
}

// TransportError covers every failure talking to upstream: network errors,
// timeouts, non-success statuses and undecodable bodies.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
