package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sensor-dashboard/internal/models"
)

// Fetch outcomes recorded by the refresh loop.
const (
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeEmpty      = "empty"
	OutcomeSuperseded = "superseded"
)

type Metrics struct {
	fetchesTotal   *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	batchRecords   prometheus.Gauge
	windowSize     *prometheus.GaugeVec
	connected      prometheus.Gauge
	lastUpdate     prometheus.Gauge
	droppedRecords *prometheus.CounterVec
	exportsTotal   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers all collectors on reg, or on the default registerer when nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		fetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fetches_total",
			Help: "Measurement fetches by outcome.",
		}, []string{"outcome"}),
		fetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_fetch_duration_seconds",
			Help:    "Duration of backend measurement fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		batchRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_batch_records",
			Help: "Records in the last applied batch.",
		}),
		windowSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_window_records",
			Help: "Records currently held in each channel window.",
		}, []string{"channel"}),
		connected: f.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_connected",
			Help: "1 when the last honoured fetch succeeded.",
		}),
		lastUpdate: f.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_last_update_timestamp_seconds",
			Help: "Unix time of the last applied snapshot.",
		}),
		droppedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_dropped_records_total",
			Help: "Records discarded before windowing, by reason.",
		}, []string{"reason"}),
		exportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_exports_total",
			Help: "Generated export artifacts by kind.",
		}, []string{"kind"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

func (m *Metrics) FetchCompleted(outcome string, d time.Duration) {
	m.fetchesTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSuperseded {
		m.fetchDuration.Observe(d.Seconds())
	}
}

// SnapshotApplied mirrors the published snapshot into gauges.
func (m *Metrics) SnapshotApplied(s *models.Snapshot, batchSize int) {
	m.batchRecords.Set(float64(batchSize))
	for _, v := range s.Channels {
		m.windowSize.WithLabelValues(v.Channel.String()).Set(float64(len(v.Window)))
	}
	m.lastUpdate.Set(float64(s.LastUpdate.Unix()))
	m.connected.Set(1)
}

func (m *Metrics) Disconnected() {
	m.connected.Set(0)
}

func (m *Metrics) RecordsDropped(reason string, n int) {
	if n > 0 {
		m.droppedRecords.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *Metrics) ExportGenerated(kind string) {
	m.exportsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveHTTP(method, endpoint, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(method, endpoint, status).Inc()
	m.httpDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}
