// Package synthetic produces placeholder day-ahead prices used when real
// upstream data is missing.
package synthetic

import (
	"math/rand/v2"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"spotprices/internal/provider"
)

// Precision is the number of decimal places of generated prices.
const Precision = 2

// band is a day-part with a base price and the width of the uniform jitter
// added on top, both in currency per kWh.
type band struct {
	from, to     int
	base, jitter float64
}

var (
	bands = []band{
		{from: 1, to: 5, base: 1.8, jitter: 0.5},   // night trough
		{from: 7, to: 9, base: 4.2, jitter: 1.0},   // morning peak
		{from: 10, to: 16, base: 3.2, jitter: 0.8}, // daytime
		{from: 17, to: 20, base: 4.8, jitter: 1.2}, // evening peak
	}
	fallback = band{base: 2.5, jitter: 0.8}
)

func bandFor(hour int) band {
	for _, b := range bands {
		if hour >= b.from && hour <= b.to {
			return b
		}
	}
	return fallback
}

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a generator drawing from src. A nil src uses the global
// math/rand/v2 source.
func New(src rand.Source) *Generator {
	g := &Generator{}
	if src != nil {
		g.rnd = rand.New(src)
	}
	return g
}

func (g *Generator) float64() float64 {
	if g.rnd == nil {
		return rand.Float64()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}

// Generate returns 24 records for date, hours 0..23 in order.
func (g *Generator) Generate(date string) []provider.PriceRecord {
	return lo.Map(lo.Range(24), func(hour int, _ int) provider.PriceRecord {
		b := bandFor(hour)
		v := decimal.NewFromFloat(b.base + g.float64()*b.jitter)
		return provider.NewPriceRecord(date, hour, v.Round(Precision).InexactFloat64())
	})
}
