// Package render delivers chart descriptors to display surfaces.
package render

import "sensor-dashboard/internal/models"

// Sink is anything that can redraw the five charts.
type Sink interface {
	Redraw(charts []models.ChartDescriptor)
}

// Fanout redraws every sink in order.
type Fanout []Sink

func (f Fanout) Redraw(charts []models.ChartDescriptor) {
	for _, s := range f {
		s.Redraw(charts)
	}
}
