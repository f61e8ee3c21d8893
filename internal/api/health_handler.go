package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

// Pinger is anything that can prove the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	timeout time.Duration
	logger  *slog.Logger
}

func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		timeout: 2 * time.Second,
		logger:  logger.With("component", "health_handler"),
	}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.HandleHealth)
}

func (h *HealthHandler) HandleHealth(c echo.Context) error {
	reqLogger := h.logger.With("request_id", c.Get("requestID"))
	reqLogger.DebugContext(c.Request().Context(), "Health check requested", "ip", c.RealIP())

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		reqLogger.ErrorContext(ctx, "Database ping failed during health check", slog.Any("error", err))
		sentry.CaptureException(err)
		return c.String(http.StatusServiceUnavailable, "DB Not Ready")
	}
	return c.String(http.StatusOK, "OK")
}
