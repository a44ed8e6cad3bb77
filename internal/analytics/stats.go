package analytics

import "sensor-dashboard/internal/models"

// Stats computes mean and extrema over a window; all zero when it is empty.
func Stats(w models.Window) models.ChannelStats {
	if len(w) == 0 {
		return models.ChannelStats{}
	}

	var sum float64
	st := models.ChannelStats{Min: w[0].Value, Max: w[0].Value}
	for _, m := range w {
		sum += m.Value
		if m.Value < st.Min {
			st.Min = m.Value
		}
		if m.Value > st.Max {
			st.Max = m.Value
		}
	}
	st.Avg = sum / float64(len(w))
	return st
}
