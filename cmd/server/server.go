package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"spotprices/internal/metrics"
	"spotprices/internal/normalize"
	"spotprices/internal/provider"
	"spotprices/internal/synthetic"
)

type serverDeps struct {
	fetcher   provider.Fetcher
	generator *synthetic.Generator
	normalize normalizeFunc
	now       func() time.Time
	loc       *time.Location
	logger    *zap.Logger

	staticDir string
	version   string
	debugAPI  bool
	metrics   bool
}

func (d *serverDeps) setDefaults() {
	if d.generator == nil {
		d.generator = synthetic.New(nil)
	}
	if d.normalize == nil {
		d.normalize = normalize.Normalize
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.loc == nil {
		d.loc = time.Local
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.staticDir == "" {
		d.staticDir = "."
	}
}

// newHandler wires routes and the middleware chain.
func newHandler(d serverDeps) http.Handler {
	d.setDefaults()

	r := mux.NewRouter()
	if d.metrics {
		r.Use(metrics.Instrument)
	}

	prices := &priceHandler{
		fetcher:   d.fetcher,
		generator: d.generator,
		normalize: d.normalize,
		now:       d.now,
		loc:       d.loc,
		logger:    d.logger.Named("prices"),
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/spot-prices", prices).Methods(http.MethodGet)
	api.Handle("/spot-prices/{date}", prices).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler(d.now, d.version)).Methods(http.MethodGet)
	if d.debugAPI {
		api.HandleFunc("/debug-api", debugHandler(d.fetcher, d.logger.Named("debug"))).Methods(http.MethodGet)
	}
	if d.metrics {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/", indexHandler(d.staticDir)).Methods(http.MethodGet, http.MethodHead)

	return withCORS(logRequests(d.logger)(withGzip(recoverPanic(d.logger)(r))))
}
