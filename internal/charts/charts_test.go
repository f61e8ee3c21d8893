package charts

import (
	"encoding/base64"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer() *Renderer {
	return NewRenderer(0, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func decodeSVG(t *testing.T, img Image) string {
	t.Helper()
	const prefix = "data:image/svg+xml;base64,"
	uri := string(img.URI)
	require.True(t, strings.HasPrefix(uri, prefix), "unexpected URI %q", uri)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	require.NoError(t, err)
	return string(raw)
}

func TestPlaceholderOnEmptyInput(t *testing.T) {
	r := newTestRenderer()

	for name, img := range map[string]Image{
		"bar":       r.Bar("Categories", nil, true),
		"histogram": r.Histogram("Prices", nil),
		"pie":       r.Pie("Stock", []Value{{Label: "In Stock", Value: 0}}),
		"lines":     r.TimeLines("History", "Products", []Line{{Name: "In Stock"}}, 0),
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, img.Placeholder)
			svg := decodeSVG(t, img)
			assert.Contains(t, svg, "<svg")
			assert.Contains(t, svg, noData)
		})
	}
}

func TestRenderCharts(t *testing.T) {
	r := newTestRenderer()
	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		img  Image
	}{
		{
			name: "bar",
			img:  r.Bar("Categories", []Value{{Label: "Chairs", Value: 6}, {Label: "Desks", Value: 4}}, true),
		},
		{
			name: "histogram",
			img:  r.Histogram("Prices", []Value{{Label: "₪0", Value: 3}, {Label: "₪50", Value: 0}, {Label: "₪100", Value: 1}}),
		},
		{
			name: "pie",
			img:  r.Pie("Stock", []Value{{Label: "In Stock", Value: 5}, {Label: "Out of Stock", Value: 5}}),
		},
		{
			name: "lines",
			img: r.TimeLines("History", "Products", []Line{
				{Name: "In Stock", Times: []time.Time{t0, t0.Add(24 * time.Hour)}, Values: []float64{7, 5}},
				{Name: "Out of Stock", Times: []time.Time{t0, t0.Add(24 * time.Hour)}, Values: []float64{3, 5}},
			}, 0),
		},
		{
			name: "single point line",
			img:  r.TimeLines("History", "%", []Line{{Name: "Rate", Times: []time.Time{t0}, Values: []float64{30}}}, 100),
		},
		{
			name: "points sharing a timestamp",
			img: r.TimeLines("History", "Products", []Line{
				{Name: "In Stock", Times: []time.Time{t0, t0}, Values: []float64{7, 5}},
				{Name: "Out of Stock", Times: []time.Time{t0, t0}, Values: []float64{3, 5}},
			}, 0),
		},
		{
			name: "all zero bars",
			img:  r.Bar("Categories", []Value{{Label: "Chairs", Value: 0}}, false),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, tc.img.Placeholder)
			assert.Contains(t, decodeSVG(t, tc.img), "<svg")
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := newTestRenderer()
	values := []Value{{Label: "Chairs", Value: 6}, {Label: "Desks", Value: 4}}
	assert.Equal(t, r.Bar("Categories", values, false), r.Bar("Categories", values, false))
}

func TestSpread(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, sameInstant([]time.Time{t0, t0, t0}))
	assert.False(t, sameInstant([]time.Time{t0, t0.Add(time.Second)}))
	assert.Equal(t, []time.Time{t0, t0.Add(time.Minute), t0.Add(2 * time.Minute)}, spread(t0, 3))
}

func TestNiceMax(t *testing.T) {
	testCases := []struct {
		in, want float64
	}{
		{0, 1},
		{1, 1},
		{1.5, 2},
		{3, 5},
		{10, 10},
		{11, 20},
		{730, 1000},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, niceMax(tc.in), "niceMax(%v)", tc.in)
	}
}
