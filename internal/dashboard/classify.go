package dashboard

import "strings"

// StockClass is the availability bucket a raw stock_status falls into.
type StockClass int

const (
	StockOther StockClass = iota
	StockIn
	StockOut
)

func (c StockClass) String() string {
	switch c {
	case StockIn:
		return "in_stock"
	case StockOut:
		return "out_of_stock"
	default:
		return "other"
	}
}

// Classifier maps scraped stock_status strings onto StockClass values.
type Classifier struct {
	in  map[string]struct{}
	out map[string]struct{}
}

func NewClassifier(rules StockStatusRules) *Classifier {
	c := &Classifier{
		in:  make(map[string]struct{}, len(rules.InStock)),
		out: make(map[string]struct{}, len(rules.OutOfStock)),
	}
	for _, s := range rules.InStock {
		c.in[normalizeStatus(s)] = struct{}{}
	}
	for _, s := range rules.OutOfStock {
		c.out[normalizeStatus(s)] = struct{}{}
	}
	return c
}

func (c *Classifier) Classify(status string) StockClass {
	key := normalizeStatus(status)
	if _, ok := c.out[key]; ok {
		return StockOut
	}
	if _, ok := c.in[key]; ok {
		return StockIn
	}
	return StockOther
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
