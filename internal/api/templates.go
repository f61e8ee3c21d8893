package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/jjckrbbt/stockdash/internal/dashboard"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateRenderer is the echo.Renderer for the dashboard pages.
type TemplateRenderer struct {
	templates *template.Template
}

var _ echo.Renderer = (*TemplateRenderer)(nil)

// NewTemplateRenderer parses the embedded templates. Prices are shown with currencySymbol.
func NewTemplateRenderer(currencySymbol string) (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"price": func(p decimal.NullDecimal) string {
			return dashboard.FormatPrice(currencySymbol, p)
		},
		"rate":      dashboard.FormatRate,
		"timestamp": dashboard.FormatTime,
	}

	t, err := template.New("dashboard").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &TemplateRenderer{templates: t}, nil
}

func (r *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// RenderHTML executes one named template into an HTML fragment.
func (r *TemplateRenderer) RenderHTML(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Has reports whether a template with the given name was parsed.
func (r *TemplateRenderer) Has(name string) bool {
	return r.templates.Lookup(name) != nil
}
