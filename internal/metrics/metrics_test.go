package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRefresh(t *testing.T) {
	m := New()

	m.ObserveRefresh(120*time.Millisecond, 3, 42, nil)
	m.ObserveRefresh(10*time.Millisecond, 0, 0, errors.New("timeout"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RefreshesTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RefreshesTotal.WithLabelValues(ResultError)))
	// the failed refresh leaves the gauges alone
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Snapshots))
	assert.Equal(t, float64(42), testutil.ToFloat64(m.LatestProducts))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "OK") })
	e.GET("/refresh", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "db down")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	for _, path := range []string{"/health", "/health", "/refresh"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/refresh", "503")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequestsInFlight))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",path="/health",status="200"} 2`), body)
	assert.Contains(t, body, "go_goroutines")
}
