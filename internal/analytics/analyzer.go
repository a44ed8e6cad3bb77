package analytics

import (
	"log/slog"
	"time"

	"sensor-dashboard/internal/models"
)

// Analyzer turns a raw batch into a fully derived snapshot.
type Analyzer struct {
	loc *time.Location
	log *slog.Logger
}

func NewAnalyzer(loc *time.Location, logger *slog.Logger) *Analyzer {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		loc: loc,
		log: logger.With(slog.String("component", "analyzer")),
	}
}

// Location is the zone chart labels are rendered in.
func (a *Analyzer) Location() *time.Location {
	return a.loc
}

// Result carries a built snapshot plus what was dropped while building it.
type Result struct {
	Snapshot   *models.Snapshot
	Unassigned int
}

// Build selects the windows of batch and derives stats and charts for each
// channel. The returned snapshot is connected and stamped with at.
func (a *Analyzer) Build(batch []models.Measurement, at time.Time) Result {
	windows, unassigned := selectWindows(batch)
	if unassigned > 0 {
		a.log.Debug("unassigned records dropped", slog.Int("count", unassigned))
	}

	views := make([]models.ChannelView, 0, len(windows))
	for _, ch := range models.Channels() {
		w := windows[ch]
		st := Stats(w)
		views = append(views, models.ChannelView{
			Channel: ch,
			Window:  w,
			Stats:   st,
			Chart:   Project(ch, w, st, a.loc),
		})
	}

	return Result{
		Snapshot: &models.Snapshot{
			Channels:   views,
			LastUpdate: at,
			Connected:  true,
		},
		Unassigned: unassigned,
	}
}
