package analytics

import (
	"slices"

	"sensor-dashboard/internal/models"
)

// SelectWindows reduces an unordered batch to at most models.WindowSize of
// the most recent records per channel. Every channel gets an entry; windows
// are ascending by timestamp. The batch itself is left untouched.
func SelectWindows(batch []models.Measurement) map[models.Channel]models.Window {
	windows, _ := selectWindows(batch)
	return windows
}

// selectWindows also reports how many records matched no channel.
func selectWindows(batch []models.Measurement) (map[models.Channel]models.Window, int) {
	sorted := slices.Clone(batch)
	slices.SortStableFunc(sorted, func(a, b models.Measurement) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	windows := make(map[models.Channel]models.Window, len(models.Channels()))
	for _, ch := range models.Channels() {
		windows[ch] = make(models.Window, 0, models.WindowSize)
	}

	unassigned := 0
	for _, m := range sorted {
		ch, ok := Classify(m.SensorID)
		if !ok {
			unassigned++
			continue
		}
		if len(windows[ch]) < models.WindowSize {
			windows[ch] = append(windows[ch], m)
		}
	}

	for ch, w := range windows {
		slices.Reverse(w)
		windows[ch] = w
	}
	return windows, unassigned
}
