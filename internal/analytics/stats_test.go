package analytics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sensor-dashboard/internal/models"
)

func window(values ...float64) models.Window {
	w := make(models.Window, len(values))
	for i, v := range values {
		w[i] = models.Measurement{SensorID: 1, Value: v, Timestamp: at(i)}
	}
	return w
}

func TestStatsEmpty(t *testing.T) {
	require.Equal(t, models.ChannelStats{}, Stats(nil))
	require.Equal(t, models.ChannelStats{}, Stats(models.Window{}))
}

func TestStats(t *testing.T) {
	st := Stats(window(20, 22, 18, 24))

	require.InDelta(t, 21.0, st.Avg, 1e-9)
	require.Equal(t, 18.0, st.Min)
	require.Equal(t, 24.0, st.Max)
}

func TestStatsNegativeValues(t *testing.T) {
	st := Stats(window(-3, -1, -2))

	require.Equal(t, -3.0, st.Min)
	require.Equal(t, -1.0, st.Max)
	require.InDelta(t, -2.0, st.Avg, 1e-9)
}

func TestStatsAverageWithinExtrema(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for range 100 {
		values := make([]float64, 1+rng.Intn(models.WindowSize))
		for i := range values {
			values[i] = rng.NormFloat64() * 50
		}
		st := Stats(window(values...))
		require.LessOrEqual(t, st.Min, st.Avg+1e-9)
		require.LessOrEqual(t, st.Avg, st.Max+1e-9)
	}
}

func TestProjectContinuous(t *testing.T) {
	w := window(20, 25)
	d := Project(models.Temperature, w, Stats(w), time.UTC)

	require.Equal(t, []float64{20, 25}, d.Series)
	require.Equal(t, []string{"12:00:00", "12:00:01"}, d.Labels)
	require.InDelta(t, 18.0, d.Axis.Min, 1e-9)
	require.InDelta(t, 27.5, d.Axis.Max, 1e-9)
	require.False(t, d.Axis.BeginAtZero)
	require.Equal(t, "Temperature (°C)", d.Title)
	require.Equal(t, "#3b82f6", d.Color)
}

func TestProjectContinuousNotClamped(t *testing.T) {
	w := window(-10, -5)
	d := Project(models.Humidity, w, Stats(w), time.UTC)

	require.InDelta(t, -9.0, d.Axis.Min, 1e-9)
	require.InDelta(t, -5.5, d.Axis.Max, 1e-9)
}

func TestProjectBooleanFixedBounds(t *testing.T) {
	for _, ch := range []models.Channel{models.Gas, models.Light, models.Water} {
		w := window(0, 1, 1, 0)
		d := Project(ch, w, Stats(w), time.UTC)

		require.Equal(t, models.AxisBounds{Min: 0, Max: 1.2, BeginAtZero: true}, d.Axis, "channel %s", ch)
		require.Len(t, d.Labels, len(d.Series))
	}
}

func TestProjectLabelsUseLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	w := window(1)
	d := Project(models.Temperature, w, Stats(w), loc)

	require.Equal(t, []string{"14:00:00"}, d.Labels)
}

func TestProjectEmptyWindow(t *testing.T) {
	d := Project(models.Temperature, models.Window{}, Stats(nil), time.UTC)

	require.Empty(t, d.Series)
	require.Empty(t, d.Labels)
	require.Equal(t, 0.0, d.Axis.Min)
	require.Equal(t, 0.0, d.Axis.Max)
}
