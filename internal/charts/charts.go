// Package charts renders the dashboard figures as SVG data URIs.
package charts

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"io"
	"log/slog"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 360

	noData = "No data available"
)

// Value is one labelled bar or pie slice.
type Value struct {
	Label string
	Value float64
}

// Line is one named time series.
type Line struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// Image is a rendered chart ready for an <img> tag.
type Image struct {
	URI         template.URL
	Alt         string
	Placeholder bool
}

// Renderer draws charts at a fixed size. It is safe for concurrent use.
type Renderer struct {
	width  int
	height int
	logger *slog.Logger
}

func NewRenderer(width, height int, logger *slog.Logger) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{
		width:  width,
		height: height,
		logger: logger.With("component", "chart_renderer"),
	}
}

func (r *Renderer) background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 12}}
}

// Bar draws one bar per value. rotateLabels tilts the x labels for long category names.
func (r *Renderer) Bar(alt string, values []Value, rotateLabels bool) Image {
	if len(values) == 0 {
		return r.Placeholder(alt)
	}

	bc := chart.BarChart{
		Width:      r.width,
		Height:     r.height,
		Background: r.background(),
		BarWidth:   barWidth(r.width, len(values), 12),
		BarSpacing: 12,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(maxValue(values))},
		},
		Bars: toChartValues(values),
	}
	if rotateLabels {
		bc.XAxis = chart.Style{TextRotationDegrees: 45}
		bc.Background.Padding.Bottom = 80
	}
	return r.render(alt, bc)
}

// Histogram is a bar chart with adjacent bars.
func (r *Renderer) Histogram(alt string, bins []Value) Image {
	if len(bins) == 0 {
		return r.Placeholder(alt)
	}

	bc := chart.BarChart{
		Width:      r.width,
		Height:     r.height,
		Background: r.background(),
		BarWidth:   barWidth(r.width, len(bins), 2),
		BarSpacing: 2,
		XAxis:      chart.Style{TextRotationDegrees: 60, FontSize: 8},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(maxValue(bins))},
		},
		Bars: toChartValues(bins),
	}
	bc.Background.Padding.Bottom = 60
	return r.render(alt, bc)
}

// Pie draws the non-zero values as slices.
func (r *Renderer) Pie(alt string, values []Value) Image {
	slices := make([]Value, 0, len(values))
	for _, v := range values {
		if v.Value > 0 {
			slices = append(slices, v)
		}
	}
	if len(slices) == 0 {
		return r.Placeholder(alt)
	}

	pc := chart.PieChart{
		Width:      r.width,
		Height:     r.height,
		Background: r.background(),
		Values:     toChartValues(slices),
	}
	return r.render(alt, pc)
}

// TimeLines draws one line per series over a shared time axis. yMax of zero
// scales the y axis to the data.
func (r *Renderer) TimeLines(alt, yName string, lines []Line, yMax float64) Image {
	var series []chart.Series
	top := 0.0
	for i, l := range lines {
		n := len(l.Times)
		if n == 0 || n != len(l.Values) {
			continue
		}
		times, ys := l.Times, l.Values
		// go-chart needs a non-zero x range
		if n == 1 {
			times = []time.Time{l.Times[0], l.Times[0].Add(time.Minute)}
			ys = []float64{l.Values[0], l.Values[0]}
		} else if sameInstant(times) {
			times = spread(times[0], n)
		}
		for _, y := range ys {
			top = math.Max(top, y)
		}
		color := chart.GetDefaultColor(i)
		series = append(series, chart.TimeSeries{
			Name:    l.Name,
			XValues: times,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	if len(series) == 0 {
		return r.Placeholder(alt)
	}
	if yMax <= 0 {
		yMax = niceMax(top)
	}

	ch := chart.Chart{
		Width:      r.width,
		Height:     r.height,
		Background: r.background(),
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 02 15:04"),
		},
		YAxis: chart.YAxis{
			Name:  yName,
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return r.render(alt, ch)
}

func sameInstant(times []time.Time) bool {
	for _, t := range times[1:] {
		if !t.Equal(times[0]) {
			return false
		}
	}
	return true
}

// spread lays n points sharing one timestamp a minute apart.
func spread(at time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = at.Add(time.Duration(i) * time.Minute)
	}
	return out
}

// Placeholder is a blank chart-sized SVG saying there is nothing to show.
func (r *Renderer) Placeholder(alt string) Image {
	img := Image{Alt: alt, Placeholder: true}

	cr, err := chart.SVG(r.width, r.height)
	if err != nil {
		r.logger.Warn("Failed to create placeholder canvas", slog.Any("error", err))
		return img
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		r.logger.Warn("Failed to load chart font", slog.Any("error", err))
		return img
	}
	cr.SetFont(font)
	cr.SetFontSize(16)
	cr.SetFontColor(chart.ColorAlternateGray)
	box := cr.MeasureText(noData)
	cr.Text(noData, (r.width-box.Width())/2, (r.height+box.Height())/2)

	var buf bytes.Buffer
	if err := cr.Save(&buf); err != nil {
		r.logger.Warn("Failed to render placeholder", slog.Any("error", err))
		return img
	}
	img.URI = dataURI(buf.Bytes())
	return img
}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func (r *Renderer) render(alt string, c renderable) Image {
	var buf bytes.Buffer
	if err := c.Render(chart.SVG, &buf); err != nil {
		r.logger.Warn("Chart render failed, showing placeholder", "chart", alt, slog.Any("error", err))
		return r.Placeholder(alt)
	}
	return Image{URI: dataURI(buf.Bytes()), Alt: alt}
}

func dataURI(svg []byte) template.URL {
	return template.URL("data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg))
}

func toChartValues(values []Value) []chart.Value {
	out := make([]chart.Value, len(values))
	for i, v := range values {
		out[i] = chart.Value{Label: v.Label, Value: v.Value}
	}
	return out
}

func maxValue(values []Value) float64 {
	top := 0.0
	for _, v := range values {
		top = math.Max(top, v.Value)
	}
	return top
}

// niceMax rounds up to 1, 2 or 5 times a power of ten, and never below 1.
func niceMax(v float64) float64 {
	if v <= 1 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	for _, step := range []float64{1, 2, 5, 10} {
		if v <= step*mag {
			return step * mag
		}
	}
	return 10 * mag
}

func barWidth(width, n, spacing int) int {
	usable := width - 120
	w := usable/n - spacing
	if w < 4 {
		return 4
	}
	if w > 60 {
		return 60
	}
	return w
}
