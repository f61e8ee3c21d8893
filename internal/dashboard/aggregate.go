package dashboard

import (
	"sort"
	"strconv"

	"github.com/jjckrbbt/stockdash/internal/repository"
	"github.com/shopspring/decimal"
)

func buildKPIs(products []repository.Product, categories []CategoryStock, snapshots int64, c *Classifier) KPIs {
	kpis := KPIs{
		TotalProducts: int64(len(products)),
		Categories:    len(categories),
		Snapshots:     snapshots,
	}

	sum := decimal.Zero
	var priced int64
	for _, p := range products {
		switch c.Classify(p.StockStatus) {
		case StockIn:
			kpis.InStock++
		case StockOut:
			kpis.OutOfStock++
		}
		if p.Price.Valid {
			sum = sum.Add(p.Price.Decimal)
			priced++
		}
	}

	kpis.StockOutRate = rate(kpis.OutOfStock, kpis.TotalProducts)
	if priced > 0 {
		kpis.AveragePrice = decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(priced)).Round(2))
	}
	return kpis
}

// buildCategories folds (category, stock_status) counts into one row per
// category, ordered by category label.
func buildCategories(levels []repository.CategoryStockLevel, c *Classifier) []CategoryStock {
	byCategory := make(map[string]*CategoryStock)
	var order []string
	for _, l := range levels {
		label := categoryLabel(l.Category)
		cs, ok := byCategory[label]
		if !ok {
			cs = &CategoryStock{Category: label}
			byCategory[label] = cs
			order = append(order, label)
		}
		cs.Total += l.Count
		switch c.Classify(l.StockStatus) {
		case StockIn:
			cs.InStock += l.Count
		case StockOut:
			cs.OutOfStock += l.Count
		}
	}

	sort.Strings(order)
	out := make([]CategoryStock, 0, len(order))
	for _, label := range order {
		cs := byCategory[label]
		cs.StockOutRate = rate(cs.OutOfStock, cs.Total)
		out = append(out, *cs)
	}
	return out
}

// buildTrend turns per-snapshot counts, oldest first, into one point per
// snapshot. It also returns every category seen, sorted.
func buildTrend(counts []repository.SnapshotStockCount, c *Classifier) ([]TrendPoint, []string) {
	var points []TrendPoint
	index := make(map[string]int)
	seen := make(map[string]struct{})

	for _, row := range counts {
		i, ok := index[row.SnapshotKey]
		if !ok {
			points = append(points, TrendPoint{
				SnapshotKey:       row.SnapshotKey,
				TakenAt:           row.TakenAt,
				InStockByCategory: make(map[string]int64),
			})
			i = len(points) - 1
			index[row.SnapshotKey] = i
		}
		p := &points[i]
		label := categoryLabel(row.Category)
		seen[label] = struct{}{}

		p.Total += row.Count
		switch c.Classify(row.StockStatus) {
		case StockIn:
			p.InStock += row.Count
			p.InStockByCategory[label] += row.Count
		case StockOut:
			p.OutOfStock += row.Count
		}
	}

	for i := range points {
		points[i].StockOutRate = rate(points[i].OutOfStock, points[i].Total)
	}

	categories := make([]string, 0, len(seen))
	for label := range seen {
		categories = append(categories, label)
	}
	sort.Strings(categories)
	return points, categories
}

func categoryDistribution(categories []CategoryStock) []Slice {
	slices := make([]Slice, 0, len(categories))
	for _, cs := range categories {
		slices = append(slices, Slice{Label: cs.Category, Value: cs.Total})
	}
	sortSlices(slices)
	return slices
}

func stockStatusDistribution(levels []repository.CategoryStockLevel) []Slice {
	totals := make(map[string]int64)
	for _, l := range levels {
		totals[statusLabel(l.StockStatus)] += l.Count
	}
	return slicesFromMap(totals)
}

// variantDistribution counts products per variant_count; rows without one are skipped.
func variantDistribution(products []repository.Product) []Slice {
	counts := make(map[int32]int64)
	for _, p := range products {
		if p.VariantCount.Valid {
			counts[p.VariantCount.Int32]++
		}
	}

	keys := make([]int32, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	slices := make([]Slice, 0, len(keys))
	for _, k := range keys {
		slices = append(slices, Slice{Label: strconv.Itoa(int(k)) + " variants", Value: counts[k]})
	}
	return slices
}

// priceHistogram expands the sparse width_bucket rows into bins equal-width
// bars. All buckets share the same bounds.
func priceHistogram(buckets []repository.PriceBucket, bins int) []PriceBin {
	if len(buckets) == 0 {
		return nil
	}
	lo, hi := buckets[0].Low, buckets[0].High
	if hi.Equal(lo) {
		var total int64
		for _, b := range buckets {
			total += b.Count
		}
		return []PriceBin{{Low: lo, High: hi, Count: total}}
	}

	width := hi.Sub(lo).Div(decimal.NewFromInt(int64(bins)))
	out := make([]PriceBin, bins)
	for i := range out {
		out[i].Low = lo.Add(width.Mul(decimal.NewFromInt(int64(i)))).Round(2)
		out[i].High = lo.Add(width.Mul(decimal.NewFromInt(int64(i + 1)))).Round(2)
	}
	out[bins-1].High = hi

	for _, b := range buckets {
		i := int(b.Bucket) - 1
		if i < 0 {
			i = 0
		}
		if i >= bins {
			i = bins - 1
		}
		out[i].Count += b.Count
	}
	return out
}

// topProducts is the n most expensive priced products, ties broken by title.
func topProducts(products []repository.Product, n int) []ProductRow {
	priced := make([]repository.Product, 0, len(products))
	for _, p := range products {
		if p.Price.Valid {
			priced = append(priced, p)
		}
	}
	sort.SliceStable(priced, func(i, j int) bool {
		if c := priced[i].Price.Decimal.Cmp(priced[j].Price.Decimal); c != 0 {
			return c > 0
		}
		if priced[i].Title != priced[j].Title {
			return priced[i].Title < priced[j].Title
		}
		return priced[i].ID < priced[j].ID
	})
	if len(priced) > n {
		priced = priced[:n]
	}

	rows := make([]ProductRow, 0, len(priced))
	for _, p := range priced {
		row := ProductRow{
			Title:       p.Title,
			URL:         p.URL,
			Category:    p.Category,
			StockStatus: statusLabel(p.StockStatus),
			Price:       p.Price,
		}
		if row.Category == "" {
			row.Category = unknownStatus
		}
		if p.VariantCount.Valid {
			row.Variants = p.VariantCount.Int32
		}
		rows = append(rows, row)
	}
	return rows
}

func slicesFromMap(m map[string]int64) []Slice {
	slices := make([]Slice, 0, len(m))
	for label, v := range m {
		slices = append(slices, Slice{Label: label, Value: v})
	}
	sortSlices(slices)
	return slices
}

// sortSlices orders by value descending, then label.
func sortSlices(slices []Slice) {
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Value != slices[j].Value {
			return slices[i].Value > slices[j].Value
		}
		return slices[i].Label < slices[j].Label
	})
}
