package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"sensor-dashboard/internal/analytics"
	"sensor-dashboard/internal/models"
)

const (
	KindJSON    = "json"
	KindSummary = "summary"

	dateLayout = "2006-01-02 15:04:05"
)

// Artifact is a generated export ready to be downloaded or stored.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Sink receives generated artifacts. Writes are fire-and-forget.
type Sink interface {
	Write(data []byte, filename string)
}

type Observer interface {
	ExportGenerated(kind string)
}

type Options struct {
	Location *time.Location
	Sink     Sink
	Observer Observer
	Logger   *slog.Logger
}

// Generator serializes snapshots. It only reads them.
type Generator struct {
	loc  *time.Location
	sink Sink
	obs  Observer
	log  *slog.Logger
}

func NewGenerator(opts Options) *Generator {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Generator{
		loc:  opts.Location,
		sink: opts.Sink,
		obs:  opts.Observer,
		log:  opts.Logger.With(slog.String("component", "report")),
	}
}

type exportRecord struct {
	ID      int64   `json:"id"`
	Channel string  `json:"channel"`
	Sensor  string  `json:"sensor"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Date    string  `json:"date"`
	OwnerID int64   `json:"owner_id"`
}

// JSON flattens every window of s into a pretty-printed record list.
func (g *Generator) JSON(s *models.Snapshot) (Artifact, error) {
	records := s.Records()
	out := make([]exportRecord, 0, len(records))
	for _, m := range records {
		ch, _ := analytics.Classify(m.SensorID)
		out = append(out, exportRecord{
			ID:      m.ID,
			Channel: ch.Info().Name,
			Sensor:  models.SensorName(m.SensorID),
			Value:   m.Value,
			Unit:    models.SensorUnit(m.SensorID),
			Date:    m.Timestamp.In(g.loc).Format(dateLayout),
			OwnerID: m.OwnerID,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal export: %w", err)
	}
	return Artifact{
		Filename:    slug.Make("measurements data") + ".json",
		ContentType: "application/json",
		Data:        data,
	}, nil
}

var booleanWords = map[models.Channel][2]string{
	models.Gas:   {"not detected", "detected"},
	models.Light: {"off", "on"},
	models.Water: {"not detected", "detected"},
}

// DailySummary renders the human-readable report for the day of now.
func (g *Generator) DailySummary(s *models.Snapshot, now time.Time) Artifact {
	day := now.In(g.loc).Format(time.DateOnly)

	var b strings.Builder
	fmt.Fprintf(&b, "Daily summary - %s\n\n", day)

	for _, v := range s.Channels {
		info := v.Channel.Info()
		label := fmt.Sprintf("%-12s", info.Name+":")
		if info.Kind == models.Continuous {
			fmt.Fprintf(&b, "%s avg %s%s | min %s%s | max %s%s\n", label,
				fixed1(v.Stats.Avg), info.Unit,
				fixed1(v.Stats.Min), info.Unit,
				fixed1(v.Stats.Max), info.Unit)
			continue
		}
		words := booleanWords[v.Channel]
		state := words[0]
		if v.Window.Latest() != 0 {
			state = words[1]
		}
		fmt.Fprintf(&b, "%s %s | avg %s\n", label, state, fixed1(v.Stats.Avg))
	}

	b.WriteString("\nMeasurements:\n")
	for _, v := range s.Channels {
		fmt.Fprintf(&b, "- %s: %d\n", v.Channel.Info().Name, len(v.Window))
	}

	last := "never"
	if !s.LastUpdate.IsZero() {
		last = s.LastUpdate.In(g.loc).Format(dateLayout)
	}
	fmt.Fprintf(&b, "\nLast update: %s\n", last)

	return Artifact{
		Filename:    slug.Make("daily summary "+day) + ".txt",
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(b.String()),
	}
}

// ExportJSON builds the JSON artifact and hands it to the sink.
func (g *Generator) ExportJSON(s *models.Snapshot) (Artifact, error) {
	a, err := g.JSON(s)
	if err != nil {
		return Artifact{}, err
	}
	g.deliver(KindJSON, a)
	return a, nil
}

// ExportDailySummary builds the summary artifact and hands it to the sink.
func (g *Generator) ExportDailySummary(s *models.Snapshot, now time.Time) Artifact {
	a := g.DailySummary(s, now)
	g.deliver(KindSummary, a)
	return a
}

func (g *Generator) deliver(kind string, a Artifact) {
	if g.sink != nil {
		g.sink.Write(a.Data, a.Filename)
	}
	if g.obs != nil {
		g.obs.ExportGenerated(kind)
	}
	g.log.Info("export generated", slog.String("kind", kind), slog.String("filename", a.Filename), slog.Int("bytes", len(a.Data)))
}

func fixed1(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}
