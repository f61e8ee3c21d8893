package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	uncategorized = "Uncategorized"
	unknownStatus = "Unknown"
)

// Dashboard is everything one refresh renders. It is rebuilt from scratch on
// every refresh.
type Dashboard struct {
	KPIs                    KPIs
	Categories              []CategoryStock
	Trend                   []TrendPoint
	TrendCategories         []string
	CategoryDistribution    []Slice
	StockStatusDistribution []Slice
	VariantDistribution     []Slice
	PriceHistogram          []PriceBin
	TopProducts             []ProductRow
	Insight                 Insight
	Session                 *SessionStatus
}

// KPIs are the headline numbers of the latest snapshot.
type KPIs struct {
	TotalProducts    int64
	InStock          int64
	OutOfStock       int64
	StockOutRate     float64
	AveragePrice     decimal.NullDecimal
	Categories       int
	Snapshots        int64
	LatestSnapshotAt *time.Time
}

// CategoryStock is one category's availability in the latest snapshot.
type CategoryStock struct {
	Category     string
	Total        int64
	InStock      int64
	OutOfStock   int64
	StockOutRate float64
}

// TrendPoint summarises one snapshot.
type TrendPoint struct {
	SnapshotKey       string
	TakenAt           time.Time
	Total             int64
	InStock           int64
	OutOfStock        int64
	StockOutRate      float64
	InStockByCategory map[string]int64
}

// Slice is one labelled count of a distribution.
type Slice struct {
	Label string
	Value int64
}

// PriceBin is one histogram bar covering [Low, High).
type PriceBin struct {
	Low   decimal.Decimal
	High  decimal.Decimal
	Count int64
}

type ProductRow struct {
	Title       string
	URL         string
	Category    string
	StockStatus string
	Price       decimal.NullDecimal
	Variants    int32
}

type InsightKind string

const (
	InsightHighDemand InsightKind = "high_demand"
	InsightOutOfStock InsightKind = "out_of_stock"
)

// Insight is the adaptive panel: demand signals when there is history to
// compare, the current stock-outs otherwise.
type Insight struct {
	Kind        InsightKind
	Title       string
	Description string
	Total       int
	Items       []InsightItem
}

type InsightItem struct {
	Title            string
	URL              string
	Category         string
	Price            decimal.NullDecimal
	PreviousStatus   string
	CurrentStatus    string
	PreviousVariants int32
	CurrentVariants  int32
	WentOutOfStock   bool
}

// VariantDrop is how many variants disappeared since the previous snapshot.
func (i InsightItem) VariantDrop() int32 {
	if d := i.PreviousVariants - i.CurrentVariants; d > 0 {
		return d
	}
	return 0
}

// SessionStatus is the scraper's most recent run.
type SessionStatus struct {
	Status            string
	StartedAt         *time.Time
	EndedAt           *time.Time
	ProductsScraped   int64
	ProductsProcessed int64
	ErrorMessage      string
}

// Label is the status with its first letter capitalised.
func (s SessionStatus) Label() string {
	status := strings.ToLower(strings.TrimSpace(s.Status))
	if status == "" {
		return unknownStatus
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

// StatusColor is the Bootstrap contextual colour for the status.
func (s SessionStatus) StatusColor() string {
	switch strings.ToLower(strings.TrimSpace(s.Status)) {
	case "completed":
		return "success"
	case "running":
		return "primary"
	case "failed", "":
		return "danger"
	default:
		return "secondary"
	}
}

// Duration renders the run length as H:MM:SS.
func (s SessionStatus) Duration() string {
	if s.EndedAt == nil {
		return "Still running..."
	}
	start := *s.EndedAt
	if s.StartedAt != nil {
		start = *s.StartedAt
	}
	d := s.EndedAt.Sub(start)
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}

func categoryLabel(category string) string {
	if strings.TrimSpace(category) == "" {
		return uncategorized
	}
	return category
}

func statusLabel(status string) string {
	if strings.TrimSpace(status) == "" {
		return unknownStatus
	}
	return status
}

func rate(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}
