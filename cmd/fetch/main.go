package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"spotprices/internal/config"
	"spotprices/internal/httpx"
	"spotprices/internal/logging"
	"spotprices/internal/normalize"
	"spotprices/internal/provider"
	"spotprices/internal/provider/spotovaelektrina"
)

type stats struct {
	Records int     `json:"records"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Avg     float64 `json:"avg"`
	MinHour int     `json:"min_hour"`
	MaxHour int     `json:"max_hour"`
}

type output struct {
	Provider string                 `json:"provider"`
	Date     string                 `json:"date"`
	Summary  normalize.Summary      `json:"summary"`
	Stats    *stats                 `json:"stats,omitempty"`
	Data     []provider.PriceRecord `json:"data"`
}

func main() {
	var (
		configPath string
		dateFlag   string
		raw        bool
		timeout    int
	)
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.StringVar(&dateFlag, "date", "today", "day to fetch: today or tomorrow")
	flag.BoolVar(&raw, "raw", false, "print the upstream payload unmodified")
	flag.IntVar(&timeout, "timeout", 0, "upstream timeout seconds (overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if timeout > 0 {
		cfg.Upstream.TimeoutSec = timeout
	}
	logger, err := logging.New(config.Log{Level: "warn"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	if err := run(context.Background(), cfg, logger, provider.ParseDay(dateFlag), raw, os.Stdout); err != nil {
		logger.Fatal("fetch failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, day provider.Day, raw bool, w io.Writer) error {
	loc, err := cfg.Prices.Location()
	if err != nil {
		return err
	}

	httpClient := httpx.FromConfig(cfg.Upstream)
	fetcher := spotovaelektrina.New(
		spotovaelektrina.WithURL(cfg.Upstream.URL),
		spotovaelektrina.WithHTTPClient(httpClient),
		spotovaelektrina.WithTimeout(cfg.Upstream.Timeout()),
		spotovaelektrina.WithLogger(logger),
	)
	return fetchAndPrint(ctx, fetcher, time.Now().In(loc), day, raw, w)
}

func fetchAndPrint(ctx context.Context, fetcher provider.Fetcher, now time.Time, day provider.Day, raw bool, w io.Writer) error {
	payload, err := fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if raw {
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	date := day.Date(now)
	records := normalize.Normalize(payload, day, date)
	out := output{
		Provider: fetcher.Name(),
		Date:     date,
		Summary:  normalize.Describe(payload, day),
		Stats:    summarize(records),
		Data:     records,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func summarize(records []provider.PriceRecord) *stats {
	if len(records) == 0 {
		return nil
	}
	lowest := lo.MinBy(records, func(a, b provider.PriceRecord) bool { return a.SpotPrice < b.SpotPrice })
	highest := lo.MaxBy(records, func(a, b provider.PriceRecord) bool { return a.SpotPrice > b.SpotPrice })
	sum := lo.SumBy(records, func(r provider.PriceRecord) float64 { return r.SpotPrice })
	return &stats{
		Records: len(records),
		Min:     lowest.SpotPrice,
		Max:     highest.SpotPrice,
		Avg:     sum / float64(len(records)),
		MinHour: lowest.Hour,
		MaxHour: highest.Hour,
	}
}
