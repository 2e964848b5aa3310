package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"spotprices/internal/metrics"
	"spotprices/internal/normalize"
	"spotprices/internal/provider"
	"spotprices/internal/synthetic"
)

const (
	sourceUpstream  = "upstream"
	sourceSynthetic = "synthetic"

	msgSynthetic           = "Upstream prices are unavailable, showing synthetic prices."
	msgTomorrowUnavailable = "Tomorrow's prices have not been published yet. Day-ahead prices usually appear in the early afternoon."
	msgTomorrowUnreachable = "The price provider is unreachable, tomorrow's prices cannot be loaded right now."
	msgTomorrowFailed      = "Tomorrow's prices could not be processed."
)

// envelope is the body of every /api/spot-prices response.
type envelope struct {
	Success   bool                   `json:"success"`
	Data      []provider.PriceRecord `json:"data"`
	Timestamp string                 `json:"timestamp"`
	Source    string                 `json:"source"`
	Date      string                 `json:"date"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type normalizeFunc func(raw []byte, day provider.Day, date string) []provider.PriceRecord

// priceHandler composes fetch, normalization and the synthetic fallback.
// A "today" request always gets data; only "tomorrow" can fail.
type priceHandler struct {
	fetcher   provider.Fetcher
	generator *synthetic.Generator
	normalize normalizeFunc
	now       func() time.Time
	loc       *time.Location
	logger    *zap.Logger
}

func (h *priceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	day := provider.ParseDay(mux.Vars(r)["date"])
	status, body := h.spotPrices(r.Context(), day)
	metrics.RecordResponse(string(day), body.Source, body.Success)
	writeJSON(w, status, body)
}

func (h *priceHandler) spotPrices(ctx context.Context, day provider.Day) (int, envelope) {
	now := h.now().In(h.loc)
	date := day.Date(now)
	body := envelope{
		Data:      []provider.PriceRecord{},
		Timestamp: now.Format(time.RFC3339),
		Source:    sourceUpstream,
		Date:      date,
	}
	log := h.logger.With(zap.String("day", string(day)), zap.String("date", date))

	start := time.Now()
	raw, err := h.fetcher.Fetch(ctx)
	metrics.RecordFetch(err, time.Since(start))
	if err != nil {
		log.Warn("upstream fetch failed", zap.String("provider", h.fetcher.Name()), zap.Error(err))
		if day == provider.Tomorrow {
			body.Message = msgTomorrowUnreachable
			body.Error = err.Error()
			return http.StatusServiceUnavailable, body
		}
		return h.fallback(body, err)
	}

	records, err := h.safeNormalize(raw, day, date)
	if err != nil {
		log.Error("normalizing upstream payload", zap.Error(err))
		if day == provider.Tomorrow {
			body.Message = msgTomorrowFailed
			body.Error = err.Error()
			return http.StatusInternalServerError, body
		}
		return h.fallback(body, err)
	}

	if len(records) == 0 {
		if day == provider.Tomorrow {
			log.Info("no upstream prices for tomorrow yet")
			body.Success = true
			body.Message = msgTomorrowUnavailable
			return http.StatusOK, body
		}
		log.Warn("no upstream prices for today, using synthetic data")
		return h.fallback(body, nil)
	}

	log.Debug("serving upstream prices", zap.Int("records", len(records)))
	body.Success = true
	body.Data = records
	return http.StatusOK, body
}

func (h *priceHandler) fallback(body envelope, cause error) (int, envelope) {
	body.Success = true
	body.Source = sourceSynthetic
	body.Data = h.generator.Generate(body.Date)
	body.Message = msgSynthetic
	if cause != nil {
		body.Error = cause.Error()
	}
	return http.StatusOK, body
}

// safeNormalize turns a normalizer panic into an error so the caller can
// apply the fallback policy.
func (h *priceHandler) safeNormalize(raw []byte, day provider.Day, date string) (records []provider.PriceRecord, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("normalize: %v", rec)
		}
	}()
	return h.normalize(raw, day, date), nil
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

func healthHandler(now func() time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:    "healthy",
			Timestamp: now().Format(time.RFC3339),
			Version:   version,
		})
	}
}

type debugResponse struct {
	Success     bool              `json:"success"`
	Provider    string            `json:"provider,omitempty"`
	RawResponse json.RawMessage   `json:"raw_response,omitempty"`
	Summary     normalize.Summary `json:"summary"`
	Error       string            `json:"error,omitempty"`
}

// debugHandler returns the untouched upstream payload together with the layout
// the normalizer would pick, for diagnosing upstream format changes.
func debugHandler(fetcher provider.Fetcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := provider.ParseDay(r.URL.Query().Get("date"))
		raw, err := fetcher.Fetch(r.Context())
		if err != nil {
			logger.Warn("debug fetch failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, debugResponse{Provider: fetcher.Name(), Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, debugResponse{
			Success:     true,
			Provider:    fetcher.Name(),
			RawResponse: raw,
			Summary:     normalize.Describe(raw, day),
		})
	}
}

func indexHandler(staticDir string) http.HandlerFunc {
	index := filepath.Join(staticDir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, index)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		zap.L().Warn("writing response", zap.Error(err))
	}
}
