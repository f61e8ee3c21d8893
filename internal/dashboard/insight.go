package dashboard

import (
	"sort"

	"github.com/jjckrbbt/stockdash/internal/repository"
)

// selectInsight picks the demand view whenever two snapshots exist, even if
// nothing deteriorated, and the stock-out list otherwise.
func selectInsight(snapshots int64, products []repository.Product, transitions []repository.StockTransition, c *Classifier, limit int) Insight {
	if snapshots >= 2 {
		return highDemand(transitions, c, limit)
	}
	return outOfStock(products, c, limit)
}

func highDemand(transitions []repository.StockTransition, c *Classifier, limit int) Insight {
	var items []InsightItem
	for _, t := range transitions {
		item := InsightItem{
			Title:          t.Title,
			URL:            t.URL,
			Category:       categoryLabel(t.Category),
			Price:          t.Price,
			PreviousStatus: statusLabel(t.PreviousStockStatus),
			CurrentStatus:  statusLabel(t.CurrentStockStatus),
			WentOutOfStock: c.Classify(t.PreviousStockStatus) != StockOut && c.Classify(t.CurrentStockStatus) == StockOut,
		}
		// A drop is only meaningful when both snapshots recorded variants.
		if t.PreviousVariantCount.Valid && t.CurrentVariantCount.Valid {
			item.PreviousVariants = t.PreviousVariantCount.Int32
			item.CurrentVariants = t.CurrentVariantCount.Int32
		}
		if item.WentOutOfStock || item.VariantDrop() > 0 {
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.WentOutOfStock != b.WentOutOfStock {
			return a.WentOutOfStock
		}
		if a.VariantDrop() != b.VariantDrop() {
			return a.VariantDrop() > b.VariantDrop()
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.URL < b.URL
	})
	items = dedupe(items)

	return Insight{
		Kind:        InsightHighDemand,
		Title:       "High-Demand Products",
		Description: "Products whose stock dropped between the two latest snapshots.",
		Total:       len(items),
		Items:       truncate(items, limit),
	}
}

func outOfStock(products []repository.Product, c *Classifier, limit int) Insight {
	var items []InsightItem
	for _, p := range products {
		if c.Classify(p.StockStatus) != StockOut {
			continue
		}
		item := InsightItem{
			Title:         p.Title,
			URL:           p.URL,
			Category:      categoryLabel(p.Category),
			Price:         p.Price,
			CurrentStatus: statusLabel(p.StockStatus),
		}
		if p.VariantCount.Valid {
			item.CurrentVariants = p.VariantCount.Int32
		}
		items = append(items, item)
	}
	items = dedupe(items)

	return Insight{
		Kind:        InsightOutOfStock,
		Title:       "Out of Stock",
		Description: "Products currently out of stock. Demand trends appear once a second snapshot exists.",
		Total:       len(items),
		Items:       truncate(items, limit),
	}
}

// dedupe keeps the first item per product identity (url, falling back to title).
func dedupe(items []InsightItem) []InsightItem {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		key := item.URL
		if key == "" {
			key = "title:" + item.Title
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func truncate(items []InsightItem, n int) []InsightItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
