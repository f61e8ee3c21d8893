package api

import (
	"fmt"
	"sort"

	"github.com/jjckrbbt/stockdash/internal/charts"
	"github.com/jjckrbbt/stockdash/internal/dashboard"
)

// ChartBuilder renders the figure a panel shows.
type ChartBuilder func(r *charts.Renderer, d *dashboard.Dashboard, s dashboard.Settings) charts.Image

// Panel is one card of the dashboard layout.
type Panel struct {
	ID       string
	Title    string
	Template string
	Chart    ChartBuilder
}

// PanelRegistry holds a map of panel IDs to their definitions.
type PanelRegistry struct {
	panels map[string]Panel
}

// NewPanelRegistry creates an empty registry.
func NewPanelRegistry() *PanelRegistry {
	return &PanelRegistry{
		panels: make(map[string]Panel),
	}
}

// Register adds a panel to the registry.
func (r *PanelRegistry) Register(p Panel) {
	if _, exists := r.panels[p.ID]; exists {
		panic(fmt.Sprintf("Panel '%s' is already registered", p.ID))
	}
	r.panels[p.ID] = p
}

// Get retrieves a panel by ID.
func (r *PanelRegistry) Get(id string) (Panel, bool) {
	p, found := r.panels[id]
	return p, found
}

// IDs lists the registered panel IDs in sorted order.
func (r *PanelRegistry) IDs() []string {
	ids := make([]string, 0, len(r.panels))
	for id := range r.panels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve maps layout rows of panel IDs onto panels. Any unknown ID fails the
// whole layout.
func (r *PanelRegistry) Resolve(layout [][]string) ([][]Panel, error) {
	rows := make([][]Panel, 0, len(layout))
	for i, ids := range layout {
		row := make([]Panel, 0, len(ids))
		for _, id := range ids {
			p, ok := r.Get(id)
			if !ok {
				return nil, fmt.Errorf("layout row %d: unknown panel '%s' (known panels: %v)", i+1, id, r.IDs())
			}
			row = append(row, p)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
