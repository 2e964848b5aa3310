// Package normalize turns the upstream price payload into hourly PriceRecords.
//
// The upstream layout has changed across API revisions, so the payload is
// first classified into a Layout by Detect and only then walked. Entries are
// read leniently: a missing or non-numeric hour or price reads as 0 and the
// entry is still emitted. Entries with a numeric hour outside 0..23, or a
// fractional one, are dropped.
package normalize

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"spotprices/internal/provider"
)

// Precision is the number of decimal places kept after unit conversion.
const Precision = 3

// Shape identifies an upstream payload layout.
type Shape int

const (
	// ShapeUnknown is any payload without a recognized layout. It yields no records.
	ShapeUnknown Shape = iota
	// ShapeList is a top-level array of dated entries.
	ShapeList
	// ShapeNestedList is an object wrapping a dated entry array under "prices" or "data".
	ShapeNestedList
	// ShapeBuckets is an object with one entry array per day, e.g. "hoursToday".
	ShapeBuckets
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeNestedList:
		return "nested_list"
	case ShapeBuckets:
		return "buckets"
	default:
		return "unknown"
	}
}

var (
	bucketKeys = map[provider.Day][]string{
		provider.Today:    {"hoursToday", "hours_today", "today"},
		provider.Tomorrow: {"hoursTomorrow", "hours_tomorrow", "tomorrow"},
	}
	nestedKeys = []string{"prices", "data"}
	// priceKeys lists the price field spellings seen upstream, first match wins.
	priceKeys = []string{"price_czk", "priceCZK", "price"}

	perKWh  = decimal.NewFromInt(1000)
	maxHour = decimal.NewFromInt(23)
)

// Layout is the detected shape of a payload together with the entries to walk.
type Layout struct {
	Shape Shape
	// Key is the object member holding the entries; empty for ShapeList.
	Key     string
	Entries []gjson.Result
}

// DateFiltered reports whether entries carry their own date that must match
// the requested one. Bucket entries are already scoped to a single day.
func (l Layout) DateFiltered() bool {
	return l.Shape == ShapeList || l.Shape == ShapeNestedList
}

// Detect classifies raw. Priority: array, bucket for the requested day, nested
// list, unknown.
func Detect(raw gjson.Result, day provider.Day) Layout {
	if raw.IsArray() {
		return Layout{Shape: ShapeList, Entries: raw.Array()}
	}
	if !raw.IsObject() {
		return Layout{Shape: ShapeUnknown}
	}
	for _, key := range bucketKeys[day] {
		if v := raw.Get(key); v.IsArray() {
			return Layout{Shape: ShapeBuckets, Key: key, Entries: v.Array()}
		}
	}
	for _, key := range nestedKeys {
		if v := raw.Get(key); v.IsArray() {
			return Layout{Shape: ShapeNestedList, Key: key, Entries: v.Array()}
		}
	}
	return Layout{Shape: ShapeUnknown}
}

// Normalize extracts the records for date (YYYY-MM-DD, already resolved from
// day) sorted ascending by hour. It never fails; an unrecognized payload
// yields an empty slice.
func Normalize(raw []byte, day provider.Day, date string) []provider.PriceRecord {
	return Records(Detect(gjson.ParseBytes(raw), day), date)
}

// Records walks a detected layout.
func Records(l Layout, date string) []provider.PriceRecord {
	out := make([]provider.PriceRecord, 0, len(l.Entries))
	for _, item := range l.Entries {
		entry, ok := asObject(item)
		if !ok {
			continue
		}
		if l.DateFiltered() && entry.Get("date").String() != date {
			continue
		}
		hour, ok := hourOf(entry)
		if !ok {
			continue
		}
		out = append(out, provider.NewPriceRecord(date, hour, ToKWh(price(entry))))
	}
	slices.SortStableFunc(out, func(a, b provider.PriceRecord) int {
		return cmp.Compare(a.Hour, b.Hour)
	})
	return out
}

// ToKWh converts a per-MWh price to per-kWh rounded to Precision places.
func ToKWh(perMWh decimal.Decimal) float64 {
	return perMWh.Div(perKWh).Round(Precision).InexactFloat64()
}

// asObject accepts objects and strings holding a JSON-encoded object.
func asObject(item gjson.Result) (gjson.Result, bool) {
	switch {
	case item.IsObject():
		return item, true
	case item.Type == gjson.String:
		inner := strings.TrimSpace(item.String())
		if gjson.Valid(inner) {
			if parsed := gjson.Parse(inner); parsed.IsObject() {
				return parsed, true
			}
		}
	}
	return gjson.Result{}, false
}

// hourOf reads the entry hour. A missing or non-numeric hour reads as 0; a
// numeric hour that is not a whole number in 0..23 rejects the entry.
func hourOf(entry gjson.Result) (int, bool) {
	h := toDecimal(entry.Get("hour"))
	if !h.IsInteger() || h.Sign() < 0 || h.GreaterThan(maxHour) {
		return 0, false
	}
	return int(h.IntPart()), true
}

func price(entry gjson.Result) decimal.Decimal {
	for _, key := range priceKeys {
		v := entry.Get(key)
		if !v.Exists() {
			continue
		}
		return toDecimal(v)
	}
	return decimal.Zero
}

func toDecimal(v gjson.Result) decimal.Decimal {
	var s string
	switch v.Type {
	case gjson.Number:
		s = v.Raw
	case gjson.String:
		s = strings.TrimSpace(v.String())
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
