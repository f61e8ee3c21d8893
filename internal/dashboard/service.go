// Package dashboard turns the products tables into the figures the dashboard
// renders. It holds no state between refreshes.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jjckrbbt/stockdash/internal/repository"
)

// Service runs one full dashboard refresh per call.
type Service struct {
	queries    repository.Querier
	settings   Settings
	classifier *Classifier
	timeout    time.Duration
	logger     *slog.Logger
}

// NewService creates a refresh service. A zero queryTimeout leaves the
// caller's context deadline in charge.
func NewService(q repository.Querier, settings Settings, queryTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		queries:    q,
		settings:   settings,
		classifier: NewClassifier(settings.StockStatus),
		timeout:    queryTimeout,
		logger:     logger.With("component", "dashboard_service"),
	}
}

func (s *Service) Settings() Settings {
	return s.settings
}

// Refresh reads every query in turn and rebuilds the dashboard. The first
// failing query aborts the refresh.
func (s *Service) Refresh(ctx context.Context) (*Dashboard, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()

	snapshots, err := s.queries.CountSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	products, err := s.queries.ListLatestProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	levels, err := s.queries.ListCategoryStockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	history, err := s.queries.ListSnapshotStockCounts(ctx, int32(s.settings.HistoryLimit))
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	buckets, err := s.queries.ListPriceHistogram(ctx, int32(s.settings.PriceBins))
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	var transitions []repository.StockTransition
	if snapshots >= 2 {
		transitions, err = s.queries.ListStockTransitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("refresh failed: %w", err)
		}
	}

	session, err := s.queries.GetLatestScrapingSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	categories := buildCategories(levels, s.classifier)
	trend, trendCategories := buildTrend(history, s.classifier)

	d := &Dashboard{
		KPIs:                    buildKPIs(products, categories, snapshots, s.classifier),
		Categories:              categories,
		Trend:                   trend,
		TrendCategories:         trendCategories,
		CategoryDistribution:    categoryDistribution(categories),
		StockStatusDistribution: stockStatusDistribution(levels),
		VariantDistribution:     variantDistribution(products),
		PriceHistogram:          priceHistogram(buckets, s.settings.PriceBins),
		TopProducts:             topProducts(products, s.settings.TopProducts),
		Insight:                 selectInsight(snapshots, products, transitions, s.classifier, s.settings.InsightLimit),
		Session:                 sessionStatus(session),
	}
	if n := len(trend); n > 0 {
		takenAt := trend[n-1].TakenAt
		d.KPIs.LatestSnapshotAt = &takenAt
	}

	s.logger.DebugContext(ctx, "Dashboard refreshed",
		"snapshots", snapshots,
		"products", d.KPIs.TotalProducts,
		"insight", d.Insight.Kind,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return d, nil
}

func sessionStatus(s *repository.ScrapingSession) *SessionStatus {
	if s == nil {
		return nil
	}
	status := &SessionStatus{
		Status:            s.Status,
		ProductsScraped:   s.ProductsScraped,
		ProductsProcessed: s.ProductsProcessed,
		ErrorMessage:      s.ErrorMessage,
	}
	if s.SessionStart.Valid {
		t := s.SessionStart.Time
		status.StartedAt = &t
	}
	if s.SessionEnd.Valid {
		t := s.SessionEnd.Time
		status.EndedAt = &t
	}
	return status
}
