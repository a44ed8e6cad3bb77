package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sensor-dashboard/internal/analytics"
	"sensor-dashboard/internal/metrics"
	"sensor-dashboard/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("refresh: not authenticated")
	ErrAlreadyStarted   = errors.New("refresh: loop already started")
	ErrStopped          = errors.New("refresh: loop stopped")
	ErrNotRunning       = errors.New("refresh: loop not running")
	ErrEmptyBatch       = errors.New("refresh: backend returned no measurements")
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 5 * time.Second

// Fetcher returns the full measurement batch known to the backend.
type Fetcher interface {
	AllMeasurements(ctx context.Context) ([]models.Measurement, error)
}

// Renderer is signalled with fresh descriptors after every applied snapshot.
type Renderer interface {
	Redraw(charts []models.ChartDescriptor)
}

// Gate decides whether the loop may start.
type Gate interface {
	Authenticated() bool
}

type Observer interface {
	FetchCompleted(outcome string, d time.Duration)
	SnapshotApplied(s *models.Snapshot, batchSize int)
	Disconnected()
	RecordsDropped(reason string, n int)
}

type Options struct {
	Interval time.Duration
	Gate     Gate
	Renderer Renderer
	Observer Observer
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Loop polls the backend on a fixed period and publishes snapshots. Only the
// most recently dispatched fetch may change state; older completions are
// dropped on arrival.
type Loop struct {
	fetcher  Fetcher
	analyzer *analytics.Analyzer
	gate     Gate
	renderer Renderer
	obs      Observer
	log      *slog.Logger
	now      func() time.Time
	interval time.Duration

	snap    atomic.Pointer[models.Snapshot]
	loading atomic.Bool
	running atomic.Bool
	state   atomic.Int32

	// redraw holds at most one pending chart set; a newer one replaces it.
	redraw chan []models.ChartDescriptor

	// mu serializes dispatch and completion; it guards the fields below.
	mu      sync.Mutex
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	done    chan struct{}
}

func New(fetcher Fetcher, analyzer *analytics.Analyzer, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRenderer{}
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	l := &Loop{
		fetcher:  fetcher,
		analyzer: analyzer,
		gate:     opts.Gate,
		renderer: opts.Renderer,
		obs:      opts.Observer,
		log:      opts.Logger.With(slog.String("component", "refresh")),
		now:      opts.Clock,
		interval: opts.Interval,
		redraw:   make(chan []models.ChartDescriptor, 1),
	}
	l.snap.Store(models.EmptySnapshot())
	return l
}

// Start fetches immediately and then once per interval until Stop is called
// or ctx is cancelled.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.stopped:
		return ErrStopped
	case l.started:
		return ErrAlreadyStarted
	}
	if l.gate != nil && !l.gate.Authenticated() {
		return ErrNotAuthenticated
	}

	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true
	l.running.Store(true)
	l.done = make(chan struct{})

	l.log.Info("refresh loop started", slog.Duration("interval", l.interval))
	l.dispatchLocked()
	go l.run()
	go l.renderLoop(l.ctx)
	return nil
}

func (l *Loop) run() {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.running.Store(false)
			l.loading.Store(false)
			l.mu.Unlock()
			l.log.Info("refresh loop stopped")
			return
		case <-ticker.C:
			l.mu.Lock()
			if !l.stopped {
				l.dispatchLocked()
			}
			l.mu.Unlock()
		}
	}
}

// Stop ends the loop for good. No tick fires after it returns and any fetch
// still in flight is discarded on completion.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.running.Store(false)
	l.loading.Store(false)
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Refresh dispatches a fetch right away, superseding any outstanding one.
func (l *Loop) Refresh() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started || l.stopped {
		return ErrNotRunning
	}
	l.dispatchLocked()
	return nil
}

func (l *Loop) dispatchLocked() {
	l.gen++
	gen, ctx := l.gen, l.ctx
	id := uuid.NewString()

	l.loading.Store(true)
	l.setState(Fetching)
	l.log.Debug("fetch dispatched", slog.String("fetch_id", id), slog.Uint64("generation", gen))

	go func() {
		start := time.Now()
		batch, err := l.fetcher.AllMeasurements(ctx)
		l.complete(gen, id, batch, err, time.Since(start))
	}()
}

func (l *Loop) complete(gen uint64, id string, batch []models.Measurement, err error, took time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	log := l.log.With(slog.String("fetch_id", id), slog.Uint64("generation", gen))

	if l.stopped || gen != l.gen {
		l.obs.FetchCompleted(metrics.OutcomeSuperseded, took)
		log.Debug("discarding superseded fetch")
		return
	}
	l.loading.Store(false)

	if err != nil {
		l.setState(Failed)
		l.snap.Store(l.snap.Load().WithFailure(fmt.Sprintf("backend connection error: %v", err)))
		l.obs.FetchCompleted(metrics.OutcomeFailure, took)
		l.obs.Disconnected()
		log.Error("fetch failed", slog.Any("err", err))
		l.setState(Idle)
		return
	}

	if len(batch) == 0 {
		l.obs.FetchCompleted(metrics.OutcomeEmpty, took)
		log.Warn("snapshot left unchanged", slog.Any("err", ErrEmptyBatch))
		l.setState(Idle)
		return
	}

	l.setState(Applying)
	res := l.analyzer.Build(batch, l.now())
	l.snap.Store(res.Snapshot)

	l.obs.FetchCompleted(metrics.OutcomeSuccess, took)
	l.obs.SnapshotApplied(res.Snapshot, len(batch))
	l.obs.RecordsDropped("unassigned", res.Unassigned)
	log.Info("snapshot applied",
		slog.Int("records", len(batch)),
		slog.Duration("took", took),
	)

	l.queueRedraw(res.Snapshot.Charts())
	l.setState(Idle)
}

// queueRedraw hands charts to the render goroutine without blocking. Only
// complete sends, and it runs under mu, so the slot is free after draining.
func (l *Loop) queueRedraw(charts []models.ChartDescriptor) {
	select {
	case l.redraw <- charts:
		return
	default:
	}
	select {
	case <-l.redraw:
	default:
	}
	l.redraw <- charts
}

// renderLoop signals the renderer outside the loop lock, in apply order.
func (l *Loop) renderLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case charts := <-l.redraw:
			l.renderer.Redraw(charts)
		}
	}
}

// Snapshot returns the current published state. The value must not be
// modified.
func (l *Loop) Snapshot() *models.Snapshot {
	return l.snap.Load()
}

// Loading reports whether the honoured fetch is still outstanding.
func (l *Loop) Loading() bool {
	return l.loading.Load()
}

func (l *Loop) State() State {
	return State(l.state.Load())
}

// Running is true between a successful Start and Stop.
func (l *Loop) Running() bool {
	return l.running.Load()
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

type nopRenderer struct{}

func (nopRenderer) Redraw([]models.ChartDescriptor) {}

type nopObserver struct{}

func (nopObserver) FetchCompleted(string, time.Duration)  {}
func (nopObserver) SnapshotApplied(*models.Snapshot, int) {}
func (nopObserver) Disconnected()                         {}
func (nopObserver) RecordsDropped(string, int)            {}
