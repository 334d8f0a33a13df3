package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTransport_CountsUpstreamCallsPerService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	client := m.HTTPClient(ServiceMiro, &http.Client{Timeout: time.Second})
	require.Equal(t, time.Second, client.Timeout)

	for _, path := range []string{"/ok", "/ok", "/missing"} {
		res, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		_ = res.Body.Close()
	}

	require.Equal(t, float64(2), testutil.ToFloat64(m.upstreamRequests.WithLabelValues(ServiceMiro, "200", "get")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.upstreamRequests.WithLabelValues(ServiceMiro, "404", "get")))
	require.Equal(t, float64(0), testutil.ToFloat64(m.upstreamRequests.WithLabelValues(ServiceOpenAI, "200", "get")))
}

func TestInstrumentHandler_AndExposition(t *testing.T) {
	m := New()
	h := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("418", "get")))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "miro_gateway_http_requests_total"))
	require.True(t, strings.Contains(string(body), "go_goroutines"))
}
