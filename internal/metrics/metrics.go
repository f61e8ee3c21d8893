// Package metrics defines the Prometheus collectors of the dashboard server
// and exposes the scrape handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds all Prometheus collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RefreshesTotal       *prometheus.CounterVec
	RefreshDuration      prometheus.Histogram
	Snapshots            prometheus.Gauge
	LatestProducts       prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry, alongside
// the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		RefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_refreshes_total",
				Help: "Total dashboard refreshes by result (success, error).",
			},
			[]string{"result"},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dashboard_refresh_duration_seconds",
				Help:    "Time spent querying and aggregating one dashboard refresh.",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
			},
		),
		Snapshots: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_snapshots",
				Help: "Distinct scrape snapshots seen by the last successful refresh.",
			},
		),
		LatestProducts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_latest_snapshot_products",
				Help: "Products in the latest snapshot as of the last successful refresh.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RefreshesTotal,
		m.RefreshDuration,
		m.Snapshots,
		m.LatestProducts,
	)

	return m
}

// ObserveRefresh records one refresh. snapshots and products are only
// applied when err is nil.
func (m *Metrics) ObserveRefresh(d time.Duration, snapshots, products int64, err error) {
	m.RefreshDuration.Observe(d.Seconds())
	if err != nil {
		m.RefreshesTotal.WithLabelValues(ResultError).Inc()
		return
	}
	m.RefreshesTotal.WithLabelValues(ResultSuccess).Inc()
	m.Snapshots.Set(float64(snapshots))
	m.LatestProducts.Set(float64(products))
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records HTTP request count, latency, and the in-flight gauge.
// Paths are labelled by route pattern; unmatched requests share one label.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
