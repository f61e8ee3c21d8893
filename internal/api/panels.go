package api

import (
	"github.com/jjckrbbt/stockdash/internal/charts"
	"github.com/jjckrbbt/stockdash/internal/dashboard"
)

// DefaultPanels registers every panel the dashboard layout can reference.
func DefaultPanels() *PanelRegistry {
	r := NewPanelRegistry()

	r.Register(Panel{ID: "database_status", Title: "Database Status", Template: "panel_database_status"})
	r.Register(Panel{ID: "scraping_status", Title: "Latest Scraping Session Status", Template: "panel_scraping_status"})
	r.Register(Panel{ID: "kpis", Title: "Key Metrics", Template: "panel_kpis"})
	r.Register(Panel{ID: "insight", Title: "Insight", Template: "panel_insight"})
	r.Register(Panel{ID: "category_stock", Title: "Stock by Category", Template: "panel_category_stock"})
	r.Register(Panel{ID: "top_products", Title: "Top Products by Price", Template: "panel_top_products"})

	r.Register(Panel{ID: "category_distribution", Title: "Category Distribution", Template: "panel_chart", Chart: categoryDistributionChart})
	r.Register(Panel{ID: "stock_status", Title: "Stock Status Distribution", Template: "panel_chart", Chart: stockStatusChart})
	r.Register(Panel{ID: "variant_distribution", Title: "Variant Distribution", Template: "panel_chart", Chart: variantDistributionChart})
	r.Register(Panel{ID: "price_distribution", Title: "Price Distribution", Template: "panel_chart", Chart: priceDistributionChart})
	r.Register(Panel{ID: "stock_out_trend", Title: "Stock-Out Rate Over Time", Template: "panel_chart", Chart: stockOutTrendChart})
	r.Register(Panel{ID: "stock_history", Title: "Stock Level Over Time", Template: "panel_chart", Chart: stockHistoryChart})
	r.Register(Panel{ID: "category_stock_history", Title: "Stock by Category Over Time", Template: "panel_chart", Chart: categoryStockHistoryChart})

	return r
}

func slicesToValues(slices []dashboard.Slice) []charts.Value {
	values := make([]charts.Value, 0, len(slices))
	for _, s := range slices {
		values = append(values, charts.Value{Label: s.Label, Value: float64(s.Value)})
	}
	return values
}

func categoryDistributionChart(r *charts.Renderer, d *dashboard.Dashboard, _ dashboard.Settings) charts.Image {
	return r.Bar("Number of products per category", slicesToValues(d.CategoryDistribution), true)
}

func stockStatusChart(r *charts.Renderer, d *dashboard.Dashboard, _ dashboard.Settings) charts.Image {
	return r.Pie("Products per stock status", slicesToValues(d.StockStatusDistribution))
}

func variantDistributionChart(r *charts.Renderer, d *dashboard.Dashboard, _ dashboard.Settings) charts.Image {
	return r.Pie("Products per variant count", slicesToValues(d.VariantDistribution))
}

func priceDistributionChart(r *charts.Renderer, d *dashboard.Dashboard, s dashboard.Settings) charts.Image {
	bins := make([]charts.Value, 0, len(d.PriceHistogram))
	for _, b := range d.PriceHistogram {
		bins = append(bins, charts.Value{
			Label: s.CurrencySymbol + b.Low.StringFixed(0),
			Value: float64(b.Count),
		})
	}
	return r.Histogram("Number of products per price range", bins)
}

func stockOutTrendChart(r *charts.Renderer, d *dashboard.Dashboard, _ dashboard.Settings) charts.Image {
	line := charts.Line{Name: "Stock-out rate"}
	for _, p := range d.Trend {
		line.Times = append(line.Times, p.TakenAt)
		line.Values = append(line.Values, p.StockOutRate*100)
	}
	return r.TimeLines("Stock-out rate per snapshot", "%", []charts.Line{line}, 100)
}

func stockHistoryChart(r *charts.Renderer, d *dashboard.Dashboard, _ dashboard.Settings) charts.Image {
	in := charts.Line{Name: "In Stock"}
	out := charts.Line{Name: "Out of Stock"}
	for _, p := range d.Trend {
		in.Times = append(in.Times, p.TakenAt)
		in.Values = append(in.Values, float64(p.InStock))
		out.Times = append(out.Times, p.TakenAt)
		out.Values = append(out.Values, float64(p.OutOfStock))
	}
	return r.TimeLines("Number of products in and out of stock per snapshot", "Products", []charts.Line{in, out}, 0)
}

func categoryStockHistoryChart(r *charts.Renderer, d *dashboard.Dashboard, _ dashboard.Settings) charts.Image {
	lines := make([]charts.Line, 0, len(d.TrendCategories))
	for _, category := range d.TrendCategories {
		line := charts.Line{Name: category}
		for _, p := range d.Trend {
			line.Times = append(line.Times, p.TakenAt)
			line.Values = append(line.Values, float64(p.InStockByCategory[category]))
		}
		lines = append(lines, line)
	}
	return r.TimeLines("Number of products in stock per category", "Products In Stock", lines, 0)
}
