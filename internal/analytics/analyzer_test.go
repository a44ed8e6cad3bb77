package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sensor-dashboard/internal/models"
)

func TestAnalyzerBuild(t *testing.T) {
	a := NewAnalyzer(time.UTC, nil)
	now := base.Add(time.Hour)
	batch := []models.Measurement{
		{ID: 1, SensorID: 1, Value: 21, Timestamp: at(2)},
		{ID: 2, SensorID: 6, Value: 23, Timestamp: at(1)},
		{ID: 3, SensorID: 3, Value: 1, Timestamp: at(1)},
		{ID: 4, SensorID: 77, Value: 9, Timestamp: at(1)},
	}

	res := a.Build(batch, now)
	snap := res.Snapshot

	require.Equal(t, 1, res.Unassigned)
	require.True(t, snap.Connected)
	require.Equal(t, now, snap.LastUpdate)
	require.Len(t, snap.Channels, 5)

	temp, ok := snap.View(models.Temperature)
	require.True(t, ok)
	require.Equal(t, []float64{23, 21}, temp.Window.Values())
	require.Equal(t, models.ChannelStats{Avg: 22, Min: 21, Max: 23}, temp.Stats)
	require.Equal(t, []float64{23, 21}, temp.Chart.Series)

	water, ok := snap.View(models.Water)
	require.True(t, ok)
	require.Empty(t, water.Window)
	require.Equal(t, models.ChannelStats{}, water.Stats)
	require.Empty(t, water.Chart.Series)
}

func TestAnalyzerBuildChannelOrder(t *testing.T) {
	snap := NewAnalyzer(time.UTC, nil).Build(nil, base).Snapshot

	var got []models.Channel
	for _, v := range snap.Channels {
		got = append(got, v.Channel)
	}
	require.Equal(t, models.Channels(), got)
	require.Len(t, snap.Charts(), 5)
}
