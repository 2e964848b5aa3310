package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrument_UsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Instrument)
	r.HandleFunc("/api/spot-prices/{date}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/spot-prices/{date}", "503"))
	for _, p := range []string{"/api/spot-prices/today", "/api/spot-prices/tomorrow"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, p, nil))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/spot-prices/{date}", "503"))
	require.Equal(t, 2.0, after-before)
}

func TestRecordFetchAndResponse(t *testing.T) {
	okBefore := testutil.ToFloat64(upstreamFetches.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(upstreamFetches.WithLabelValues("error"))
	RecordFetch(nil, 10*time.Millisecond)
	RecordFetch(errors.New("boom"), time.Second)
	require.Equal(t, 1.0, testutil.ToFloat64(upstreamFetches.WithLabelValues("ok"))-okBefore)
	require.Equal(t, 1.0, testutil.ToFloat64(upstreamFetches.WithLabelValues("error"))-errBefore)

	respBefore := testutil.ToFloat64(priceResponses.WithLabelValues("today", "synthetic", "true"))
	RecordResponse("today", "synthetic", true)
	require.Equal(t, 1.0, testutil.ToFloat64(priceResponses.WithLabelValues("today", "synthetic", "true"))-respBefore)
}

func TestHandler_Exposition(t *testing.T) {
	RecordResponse("tomorrow", "upstream", false)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Contains(t, string(b), `spot_prices_api_responses_total{day="tomorrow",source="upstream",success="false"}`)
}
