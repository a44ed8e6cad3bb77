package analytics

import (
	"time"

	"sensor-dashboard/internal/models"
)

// LabelLayout is the time-of-day layout used for chart labels.
const LabelLayout = "15:04:05"

const (
	continuousLowPad  = 0.9
	continuousHighPad = 1.1
	booleanAxisMax    = 1.2
)

// Project builds the chart descriptor of one channel. Continuous channels get
// a padded range around the window extrema; boolean channels a fixed 0..1.2.
func Project(ch models.Channel, w models.Window, st models.ChannelStats, loc *time.Location) models.ChartDescriptor {
	if loc == nil {
		loc = time.Local
	}
	info := ch.Info()

	labels := make([]string, len(w))
	for i, m := range w {
		labels[i] = m.Timestamp.In(loc).Format(LabelLayout)
	}

	axis := models.AxisBounds{Min: 0, Max: booleanAxisMax, BeginAtZero: true}
	if info.Kind == models.Continuous {
		axis = models.AxisBounds{
			Min: st.Min * continuousLowPad,
			Max: st.Max * continuousHighPad,
		}
	}

	return models.ChartDescriptor{
		Channel:    ch,
		Title:      info.Title,
		Color:      info.Color,
		YAxisTitle: info.YAxisTitle,
		Labels:     labels,
		Series:     w.Values(),
		Axis:       axis,
	}
}
