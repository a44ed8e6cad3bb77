package models

import (
	"slices"
	"time"
)

// Snapshot is the full engine state. It is immutable once published; every
// change produces a new value.
type Snapshot struct {
	Channels   []ChannelView `json:"channels"`
	LastUpdate time.Time     `json:"last_update"`
	Connected  bool          `json:"connected"`
	Error      string        `json:"error,omitempty"`
}

// EmptySnapshot returns a disconnected snapshot with an empty view per channel.
func EmptySnapshot() *Snapshot {
	views := make([]ChannelView, 0, len(channelOrder))
	for _, ch := range channelOrder {
		info := ch.Info()
		views = append(views, ChannelView{
			Channel: ch,
			Window:  Window{},
			Chart: ChartDescriptor{
				Channel:    ch,
				Title:      info.Title,
				Color:      info.Color,
				YAxisTitle: info.YAxisTitle,
				Labels:     []string{},
				Series:     []float64{},
			},
		})
	}
	return &Snapshot{Channels: views}
}

// View returns the view for ch.
func (s *Snapshot) View(ch Channel) (ChannelView, bool) {
	for _, v := range s.Channels {
		if v.Channel == ch {
			return v, true
		}
	}
	return ChannelView{}, false
}

// Charts returns one descriptor per channel in canonical order.
func (s *Snapshot) Charts() []ChartDescriptor {
	out := make([]ChartDescriptor, len(s.Channels))
	for i, v := range s.Channels {
		out[i] = v.Chart
	}
	return out
}

// Records flattens all windows, ascending by timestamp. Records sharing a
// timestamp keep channel order.
func (s *Snapshot) Records() []Measurement {
	var out []Measurement
	for _, v := range s.Channels {
		out = append(out, v.Window...)
	}
	slices.SortStableFunc(out, func(a, b Measurement) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// WithFailure derives a disconnected copy that keeps the current windows and
// last update.
func (s *Snapshot) WithFailure(reason string) *Snapshot {
	next := *s
	next.Connected = false
	next.Error = reason
	return &next
}
