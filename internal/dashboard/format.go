package dashboard

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

// FormatPrice renders a price with two decimals, or N/A when it is missing.
func FormatPrice(symbol string, price decimal.NullDecimal) string {
	if !price.Valid {
		return notAvailable
	}
	return symbol + price.Decimal.StringFixed(2)
}

// FormatRate renders a 0..1 fraction as a percentage with one decimal.
func FormatRate(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}

// FormatTime renders t in UTC, or N/A when it is nil.
func FormatTime(t *time.Time) string {
	if t == nil {
		return notAvailable
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
