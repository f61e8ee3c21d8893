// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jjckrbbt/stockdash/internal/api"
	"github.com/jjckrbbt/stockdash/internal/charts"
	"github.com/jjckrbbt/stockdash/internal/config"
	"github.com/jjckrbbt/stockdash/internal/connections"
	"github.com/jjckrbbt/stockdash/internal/dashboard"
	"github.com/jjckrbbt/stockdash/internal/logger"
	"github.com/jjckrbbt/stockdash/internal/metrics"
	"github.com/jjckrbbt/stockdash/internal/repository"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func slogPanicRecoverMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					reqLogger := logger.With("request_id", c.Get("requestID"))
					reqLogger.ErrorContext(c.Request().Context(), "PANIC recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
					)
					c.Error(err)
				}
			}()
			return next(c)
		}
	}
}

func requestLogMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := uuid.New().String()
			c.Set("requestID", reqID)
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			start := time.Now()

			if hub := sentryecho.GetHubFromContext(c); hub != nil {
				hub.Scope().SetTag("request_id", reqID)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			logger.InfoContext(c.Request().Context(), "HTTP Request",
				"request_id", reqID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				"user_agent", c.Request().UserAgent(),
				"ip", c.RealIP(),
			)
			return err
		}
	}
}

func main() {
	// 1. Load application configuration FIRST.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Sentry when a DSN is configured.
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.AppEnv,
			TracesSampleRate: 1.0,
			Debug:            cfg.Debug,
		}); err != nil {
			fmt.Printf("Sentry initialization failed: %v\n", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// 3. Initialize the Logger.
	logger.InitLogger(cfg.AppEnv, cfg.Debug)
	appLogger := logger.L()

	appLogger.Info("Application starting up...", "environment", cfg.AppEnv, "schema", cfg.DBSchema)

	// 4. Load dashboard settings; a bad layout must fail before we touch the database.
	settings, err := dashboard.LoadSettings(cfg.DashboardConfig)
	if err != nil {
		appLogger.Error("Failed to load dashboard settings", slog.Any("error", err))
		os.Exit(1)
	}

	views, err := api.NewTemplateRenderer(settings.CurrencySymbol)
	if err != nil {
		appLogger.Error("Failed to load templates", slog.Any("error", err))
		os.Exit(1)
	}

	// 5. Connect to the Database.
	dbClient, err := connections.ConnectDB(cfg.DatabaseURL(), appLogger.With("component", "database_connector"))
	if err != nil {
		appLogger.Error("Failed to connect to database at startup", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbClient.Close()

	// 6. Initialize Core Application Components.
	queries := repository.New(dbClient.Pool, cfg.DBSchema)
	dashboardService := dashboard.NewService(queries, settings, cfg.DBQueryTimeout, appLogger)
	appMetrics := metrics.New()

	apiLogger := appLogger.With("service", "api_handlers")

	dashboardHandler, err := api.NewDashboardHandler(
		dashboardService,
		settings,
		api.DefaultPanels(),
		views,
		charts.NewRenderer(charts.DefaultWidth, charts.DefaultHeight, apiLogger),
		appMetrics,
		apiLogger,
	)
	if err != nil {
		appLogger.Error("Failed to initialize dashboard handler", slog.Any("error", err))
		os.Exit(1)
	}
	healthHandler := api.NewHealthHandler(dbClient, apiLogger)

	appLogger.Info("API handlers initialized.", "layout_rows", len(settings.Layout), "refresh_interval", settings.RefreshInterval)

	// 7. Initialize Echo.
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Debug
	e.Renderer = views

	// Configure Echo's logger to use our slog instance.
	e.Logger.SetOutput(io.Discard)
	e.Logger.SetLevel(0)
	e.Logger.SetHeader("")

	// 8. Register Middleware.
	e.Use(slogPanicRecoverMiddleware(appLogger))
	e.Use(sentryecho.New(sentryecho.Options{
		Repanic: true,
	}))
	e.Use(requestLogMiddleware(appLogger))
	e.Use(appMetrics.Middleware())
	e.Use(middleware.Gzip())

	// 9. Register Routes.
	dashboardHandler.RegisterRoutes(e)
	healthHandler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(appMetrics.Handler()))

	// 10. Start the HTTP server and wait for a shutdown signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Info("HTTP Server starting", "address", cfg.Address())
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP Server failed to start", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP Server shutdown failed", slog.Any("error", err))
	}
	appLogger.Info("HTTP Server stopped gracefully.")
}
