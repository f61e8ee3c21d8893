package api

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/jjckrbbt/stockdash/internal/charts"
	"github.com/jjckrbbt/stockdash/internal/dashboard"
	"github.com/jjckrbbt/stockdash/internal/metrics"
	"github.com/labstack/echo/v4"
)

// Refresher rebuilds the dashboard from the database.
type Refresher interface {
	Refresh(ctx context.Context) (*dashboard.Dashboard, error)
}

type DashboardHandler struct {
	service  Refresher
	settings dashboard.Settings
	layout   [][]Panel
	views    *TemplateRenderer
	charts   *charts.Renderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type pageView struct {
	Title         string
	RefreshMillis int64
	Error         string
	Panels        panelsView
}

type panelsView struct {
	Rows []rowView
}

type rowView struct {
	Width int
	Cells []cellView
}

type cellView struct {
	ID    string
	Title string
	Body  template.HTML
}

// panelData is what every panel template receives.
type panelData struct {
	Panel     Panel
	Dashboard *dashboard.Dashboard
	Settings  dashboard.Settings
	Chart     charts.Image
}

// NewDashboardHandler resolves the configured layout against registry. An
// unknown panel ID or a panel without a template is an error.
func NewDashboardHandler(service Refresher, settings dashboard.Settings, registry *PanelRegistry, views *TemplateRenderer, renderer *charts.Renderer, m *metrics.Metrics, logger *slog.Logger) (*DashboardHandler, error) {
	layout, err := registry.Resolve(settings.Layout)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard layout: %w", err)
	}
	for _, row := range layout {
		for _, p := range row {
			if !views.Has(p.Template) {
				return nil, fmt.Errorf("invalid dashboard layout: panel '%s' has no template '%s'", p.ID, p.Template)
			}
		}
	}

	return &DashboardHandler{
		service:  service,
		settings: settings,
		layout:   layout,
		views:    views,
		charts:   renderer,
		metrics:  m,
		logger:   logger.With("component", "dashboard_handler"),
	}, nil
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.HandleIndex)
	e.GET("/refresh", h.HandleRefresh)
}

// HandleIndex serves the full page. A failed refresh still serves the page,
// with an error banner and no panels, so the timer can recover it.
func (h *DashboardHandler) HandleIndex(c echo.Context) error {
	view := pageView{
		Title:         h.settings.Title,
		RefreshMillis: h.settings.RefreshInterval.Milliseconds(),
	}

	d, err := h.refresh(c)
	if err != nil {
		view.Error = err.Error()
		return c.Render(http.StatusServiceUnavailable, "page", view)
	}

	panels, err := h.renderPanels(d)
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "failed to render dashboard panels", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render dashboard").SetInternal(err)
	}
	view.Panels = panels
	return c.Render(http.StatusOK, "page", view)
}

// HandleRefresh serves only the panels fragment the page timer swaps in.
func (h *DashboardHandler) HandleRefresh(c echo.Context) error {
	d, err := h.refresh(c)
	if err != nil {
		return c.Render(http.StatusServiceUnavailable, "error", err.Error())
	}

	panels, err := h.renderPanels(d)
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "failed to render dashboard panels", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render dashboard").SetInternal(err)
	}
	return c.Render(http.StatusOK, "panels", panels)
}

func (h *DashboardHandler) refresh(c echo.Context) (*dashboard.Dashboard, error) {
	ctx := c.Request().Context()
	start := time.Now()

	d, err := h.service.Refresh(ctx)
	if err != nil {
		h.metrics.ObserveRefresh(time.Since(start), 0, 0, err)
		h.logger.ErrorContext(ctx, "dashboard refresh failed",
			"request_id", c.Get("requestID"),
			"path", c.Request().URL.Path,
			"error", err,
		)
		if hub := sentryecho.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
		return nil, err
	}

	h.metrics.ObserveRefresh(time.Since(start), d.KPIs.Snapshots, d.KPIs.TotalProducts, nil)
	h.logger.InfoContext(ctx, "dashboard refreshed",
		"request_id", c.Get("requestID"),
		"snapshots", d.KPIs.Snapshots,
		"products", d.KPIs.TotalProducts,
		"insight", d.Insight.Kind,
	)
	return d, nil
}

func (h *DashboardHandler) renderPanels(d *dashboard.Dashboard) (panelsView, error) {
	view := panelsView{Rows: make([]rowView, 0, len(h.layout))}
	for _, row := range h.layout {
		rv := rowView{Width: columnWidth(len(row)), Cells: make([]cellView, 0, len(row))}
		for _, p := range row {
			data := panelData{Panel: p, Dashboard: d, Settings: h.settings}
			if p.Chart != nil {
				data.Chart = p.Chart(h.charts, d, h.settings)
			}
			body, err := h.views.RenderHTML(p.Template, data)
			if err != nil {
				return panelsView{}, fmt.Errorf("panel %s: %w", p.ID, err)
			}
			rv.Cells = append(rv.Cells, cellView{ID: p.ID, Title: p.Title, Body: body})
		}
		view.Rows = append(view.Rows, rv)
	}
	return view, nil
}

// columnWidth splits the 12 Bootstrap grid columns evenly across a row.
func columnWidth(n int) int {
	if n <= 1 {
		return 12
	}
	if n >= 12 {
		return 1
	}
	return 12 / n
}
