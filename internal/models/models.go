package models

import "time"

// WindowSize caps the number of records kept per channel.
const WindowSize = 20

// Measurement is one reading fetched from the backend. The engine never
// deduplicates by ID; every poll is treated as the full truth.
type Measurement struct {
	ID        int64     `json:"id"`
	SensorID  int       `json:"sensor_id"`
	OwnerID   int64     `json:"owner_id"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Window is a time-ascending series of at most WindowSize measurements.
type Window []Measurement

// Values returns the measurement values in window order.
func (w Window) Values() []float64 {
	out := make([]float64, len(w))
	for i, m := range w {
		out[i] = m.Value
	}
	return out
}

// Latest returns the most recent value, or 0 when the window is empty.
func (w Window) Latest() float64 {
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1].Value
}

type ChannelStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type AxisBounds struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	BeginAtZero bool    `json:"begin_at_zero"`
}

// ChartDescriptor is the rendering-ready projection of one channel window.
type ChartDescriptor struct {
	Channel    Channel    `json:"channel"`
	Title      string     `json:"title"`
	Color      string     `json:"color"`
	YAxisTitle string     `json:"y_axis_title"`
	Labels     []string   `json:"labels"`
	Series     []float64  `json:"series"`
	Axis       AxisBounds `json:"axis"`
}

// ChannelView groups everything derived for one channel from a single batch.
type ChannelView struct {
	Channel Channel         `json:"channel"`
	Window  Window          `json:"window"`
	Stats   ChannelStats    `json:"stats"`
	Chart   ChartDescriptor `json:"chart"`
}
