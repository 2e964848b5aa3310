package spotovaelektrina_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"spotprices/internal/provider"
	"spotprices/internal/provider/spotovaelektrina"
)

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	client := spotovaelektrina.New()
	require.NotNil(t, client)
	require.Equal(t, spotovaelektrina.DefaultURL, client.URL())
	require.Equal(t, "spotovaelektrina.cz", client.Name())
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	payload := `[{"date":"2025-03-01","hour":0,"price_czk":2450}]`

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "http://upstream.test/prices", req.URL.String())
			require.Equal(t, "application/json", req.Header.Get("Accept"))
			require.Equal(t, "bar", req.Header.Get("foo"))
			_, hasDeadline := req.Context().Deadline()
			require.True(t, hasDeadline, "expected a bounded request context")
			return okResponse(payload), nil
		}).
		Times(1)

	client := spotovaelektrina.New(
		spotovaelektrina.WithHTTPClient(httpClient),
		spotovaelektrina.WithURL("http://upstream.test/prices"),
		spotovaelektrina.WithHeader(http.Header{"foo": []string{"bar"}}),
	)

	// Act
	raw, err := client.Fetch(t.Context())

	// Assert
	require.NoError(t, err)
	require.JSONEq(t, payload, string(raw))
}

func TestFetch_ErrCreatingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	client := spotovaelektrina.New(
		spotovaelektrina.WithHTTPClient(httpClient),
		spotovaelektrina.WithURL(string([]rune{0x7f})),
	)

	raw, err := client.Fetch(t.Context())
	require.Error(t, err)
	require.Nil(t, raw)

	var te *provider.TransportError
	require.ErrorAs(t, err, &te)
}

func TestFetch_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		}).
		Times(1)

	client := spotovaelektrina.New(spotovaelektrina.WithHTTPClient(httpClient))

	raw, err := client.Fetch(t.Context())
	require.Error(t, err)
	require.Nil(t, raw)

	var te *provider.TransportError
	require.ErrorAs(t, err, &te)
	require.Zero(t, te.StatusCode)
	require.Contains(t, err.Error(), "connection refused")
}

func TestFetch_Timeout(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: block until the fetch deadline fires, like a hung upstream.
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, &netTimeout{}
		}).
		Times(1)

	client := spotovaelektrina.New(
		spotovaelektrina.WithHTTPClient(httpClient),
		spotovaelektrina.WithTimeout(20*time.Millisecond),
	)

	start := time.Now()
	_, err := client.Fetch(t.Context())
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var te *provider.TransportError
	require.ErrorAs(t, err, &te)
}

func TestFetch_ErrUnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusBadGateway,
				Body:       io.NopCloser(bytes.NewReader([]byte("upstream down"))),
			}, nil
		}).
		Times(1)

	client := spotovaelektrina.New(spotovaelektrina.WithHTTPClient(httpClient))

	raw, err := client.Fetch(t.Context())
	require.Error(t, err)
	require.Nil(t, raw)

	var te *provider.TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusBadGateway, te.StatusCode)
	require.Contains(t, err.Error(), "upstream down")
}

func TestFetch_ErrDecodingResponse(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return okResponse("invalid json"), nil
		}).
		Times(1)

	client := spotovaelektrina.New(spotovaelektrina.WithHTTPClient(httpClient))

	raw, err := client.Fetch(t.Context())
	require.Error(t, err)
	require.Nil(t, raw)

	var te *provider.TransportError
	require.ErrorAs(t, err, &te)
	require.Contains(t, err.Error(), "malformed JSON")
}

func TestFetch_AcceptsObjectPayload(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(okResponse(`{"hoursToday":[{"hour":5,"priceCZK":3200}]}`), nil).
		Times(1)

	client := spotovaelektrina.New(spotovaelektrina.WithHTTPClient(httpClient))

	raw, err := client.Fetch(t.Context())
	require.NoError(t, err)
	require.Contains(t, string(raw), "hoursToday")
}

func TestFetch_WithLogger(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(*http.Request) (*http.Response, error) { return okResponse(`[]`), nil }).
		Times(2)

	core, logs := observer.New(zap.DebugLevel)
	client := spotovaelektrina.New(
		spotovaelektrina.WithHTTPClient(httpClient),
		spotovaelektrina.WithURL("http://upstream.test/prices"),
		spotovaelektrina.WithLogger(zap.New(core)),
	)

	// Act
	_, err := client.Fetch(t.Context())

	// Assert
	require.NoError(t, err)
	entries := logs.FilterMessage("fetched upstream prices").All()
	require.Len(t, entries, 1)
	require.Equal(t, "http://upstream.test/prices", entries[0].ContextMap()["url"])
	require.EqualValues(t, 2, entries[0].ContextMap()["bytes"])

	// A nil logger keeps the default no-op logger.
	nilLogged := spotovaelektrina.New(spotovaelektrina.WithHTTPClient(httpClient), spotovaelektrina.WithLogger(nil))
	_, err = nilLogged.Fetch(t.Context())
	require.NoError(t, err)
}

// netTimeout mimics the error net/http returns when the request context expires.
type netTimeout struct{}

func (*netTimeout) Error() string { return "net/http: request canceled" }

