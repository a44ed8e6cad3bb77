package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sensor-dashboard/internal/analytics"
	"sensor-dashboard/internal/logging"
	"sensor-dashboard/internal/models"
)

var t0 = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memorySink) Write(data []byte, filename string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[filename] = data
}

type countingObserver map[string]int

func (c countingObserver) ExportGenerated(kind string) { c[kind]++ }

func sampleSnapshot() *models.Snapshot {
	batch := []models.Measurement{
		{ID: 1, SensorID: 1, OwnerID: 9, Value: 20, Timestamp: t0},
		{ID: 2, SensorID: 6, OwnerID: 9, Value: 22.5, Timestamp: t0.Add(2 * time.Second)},
		{ID: 3, SensorID: 2, OwnerID: 9, Value: 41.25, Timestamp: t0.Add(time.Second)},
		{ID: 4, SensorID: 3, OwnerID: 9, Value: 0, Timestamp: t0.Add(time.Second)},
		{ID: 5, SensorID: 3, OwnerID: 9, Value: 1, Timestamp: t0.Add(3 * time.Second)},
		{ID: 6, SensorID: 4, OwnerID: 9, Value: 1, Timestamp: t0},
		{ID: 7, SensorID: 4, OwnerID: 9, Value: 0, Timestamp: t0.Add(4 * time.Second)},
	}
	return analytics.NewAnalyzer(time.UTC, logging.Discard()).Build(batch, t0.Add(time.Minute)).Snapshot
}

func newGenerator(sink Sink, obs Observer) *Generator {
	return NewGenerator(Options{Location: time.UTC, Sink: sink, Observer: obs, Logger: logging.Discard()})
}

func TestJSONExport(t *testing.T) {
	a, err := newGenerator(nil, nil).JSON(sampleSnapshot())
	require.NoError(t, err)
	require.Equal(t, "measurements-data.json", a.Filename)
	require.Equal(t, "application/json", a.ContentType)

	var records []exportRecord
	require.NoError(t, json.Unmarshal(a.Data, &records))
	require.Len(t, records, 7)

	var ids []int64
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	require.Equal(t, []int64{1, 6, 3, 4, 2, 5, 7}, ids)

	first := records[0]
	require.Equal(t, "Temperature", first.Channel)
	require.Equal(t, "Temperature 1", first.Sensor)
	require.Equal(t, "°C", first.Unit)
	require.Equal(t, "2025-10-01 12:00:00", first.Date)
	require.Equal(t, int64(9), first.OwnerID)

	require.Equal(t, "Temperature 2", records[4].Sensor)
	require.Equal(t, "boolean", records[5].Unit)
	require.True(t, strings.HasPrefix(string(a.Data), "[\n  {"))
}

func TestJSONExportEmptySnapshot(t *testing.T) {
	a, err := newGenerator(nil, nil).JSON(models.EmptySnapshot())
	require.NoError(t, err)
	require.Equal(t, "[]", string(a.Data))
}

func TestDailySummary(t *testing.T) {
	now := time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)
	a := newGenerator(nil, nil).DailySummary(sampleSnapshot(), now)

	require.Equal(t, "daily-summary-2026-10-15.txt", a.Filename)
	text := string(a.Data)

	require.Contains(t, text, "Daily summary - 2026-10-15")
	require.Contains(t, text, "Temperature: avg 21.3°C | min 20.0°C | max 22.5°C")
	require.Contains(t, text, "Humidity:    avg 41.3% | min 41.3% | max 41.3%")
	require.Contains(t, text, "Gas:         detected | avg 0.5")
	require.Contains(t, text, "Light:       off | avg 0.5")
	require.Contains(t, text, "Water:       not detected | avg 0.0")
	require.Contains(t, text, "- Temperature: 2\n")
	require.Contains(t, text, "- Gas: 2\n")
	require.Contains(t, text, "- Water: 0\n")
	require.Contains(t, text, "Last update: 2025-10-01 12:01:00")
}

func TestDailySummaryNeverUpdated(t *testing.T) {
	a := newGenerator(nil, nil).DailySummary(models.EmptySnapshot(), t0)
	require.Contains(t, string(a.Data), "Last update: never")
}

func TestExportsDeliverToSink(t *testing.T) {
	sink := &memorySink{}
	obs := countingObserver{}
	g := newGenerator(sink, obs)
	snap := sampleSnapshot()

	j, err := g.ExportJSON(snap)
	require.NoError(t, err)
	s := g.ExportDailySummary(snap, t0)

	require.Equal(t, j.Data, sink.files[j.Filename])
	require.Equal(t, s.Data, sink.files[s.Filename])
	require.Equal(t, 1, obs[KindJSON])
	require.Equal(t, 1, obs[KindSummary])
}

func TestExportDoesNotMutateSnapshot(t *testing.T) {
	snap := sampleSnapshot()
	before := snap.Channels[0].Window[0]

	_, err := newGenerator(nil, nil).JSON(snap)
	require.NoError(t, err)
	newGenerator(nil, nil).DailySummary(snap, t0)

	require.Equal(t, before, snap.Channels[0].Window[0])
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := NewDirSink(dir, logging.Discard())

	sink.Write([]byte("hello"), "../escape.txt")

	data, err := os.ReadFile(filepath.Join(dir, "escape.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestMultiSink(t *testing.T) {
	a, b := &memorySink{}, &memorySink{}
	MultiSink{a, b}.Write([]byte("x"), "f.txt")

	require.Equal(t, []byte("x"), a.files["f.txt"])
	require.Equal(t, []byte("x"), b.files["f.txt"])
}
