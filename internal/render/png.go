package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sensor-dashboard/internal/models"
)

const (
	defaultWidth  = 800
	defaultHeight = 300
)

// PNGRenderer keeps the latest PNG image of every channel chart.
type PNGRenderer struct {
	width  int
	height int
	log    *slog.Logger
	draw   func(models.ChartDescriptor) ([]byte, error)

	mu     sync.RWMutex
	images map[models.Channel][]byte
}

func NewPNGRenderer(width, height int, logger *slog.Logger) *PNGRenderer {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &PNGRenderer{
		width:  width,
		height: height,
		log:    logger.With(slog.String("component", "png_renderer")),
		images: make(map[models.Channel][]byte),
	}
	p.draw = p.render
	return p
}

// Redraw re-renders every chart. Channels with an empty series or a failed
// render lose their image.
func (p *PNGRenderer) Redraw(charts []models.ChartDescriptor) {
	next := make(map[models.Channel][]byte, len(charts))
	p.mu.RLock()
	for ch, img := range p.images {
		next[ch] = img
	}
	p.mu.RUnlock()

	for _, c := range charts {
		if len(c.Series) == 0 {
			delete(next, c.Channel)
			continue
		}
		img, err := p.draw(c)
		if err != nil {
			p.log.Warn("chart render failed", slog.String("channel", c.Channel.String()), slog.Any("err", err))
			delete(next, c.Channel)
			continue
		}
		next[c.Channel] = img
	}

	p.mu.Lock()
	p.images = next
	p.mu.Unlock()
}

// Image returns the last rendered PNG of ch.
func (p *PNGRenderer) Image(ch models.Channel) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	img, ok := p.images[ch]
	return img, ok
}

func (p *PNGRenderer) render(c models.ChartDescriptor) ([]byte, error) {
	xs := make([]float64, len(c.Series))
	ticks := make([]chart.Tick, len(c.Series))
	for i := range c.Series {
		xs[i] = float64(i)
		label := ""
		if i < len(c.Labels) {
			label = c.Labels[i]
		}
		ticks[i] = chart.Tick{Value: float64(i), Label: label}
	}
	ys := c.Series

	// go-chart needs two points to draw a line, and derives the x range
	// from the ticks when they are set.
	if len(ys) == 1 {
		xs = []float64{0, 1}
		ys = []float64{ys[0], ys[0]}
		ticks = append(ticks, chart.Tick{Value: 1})
	}

	col := drawing.ColorFromHex(strings.TrimPrefix(c.Color, "#"))
	lo, hi := yRange(c.Axis)

	graph := chart.Chart{
		Title:      c.Title,
		Width:      p.width,
		Height:     p.height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
		},
		YAxis: chart.YAxis{
			Name:  c.YAxisTitle,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    c.Title,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: col,
					StrokeWidth: 2,
					FillColor:   col.WithAlpha(48),
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", c.Channel, err)
	}
	return buf.Bytes(), nil
}

// yRange widens degenerate bounds so the renderer always gets a span.
func yRange(a models.AxisBounds) (float64, float64) {
	lo, hi := a.Min, a.Max
	if a.BeginAtZero && lo > 0 {
		lo = 0
	}
	if hi <= lo {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}
