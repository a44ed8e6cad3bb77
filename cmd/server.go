package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sensor-dashboard/internal/cache"
	"sensor-dashboard/internal/dashboard"
	"sensor-dashboard/internal/metrics"
	"sensor-dashboard/internal/models"
	"sensor-dashboard/internal/render"
	"sensor-dashboard/internal/report"
)

const version = "1.0.0"

type sensorSource interface {
	MeasurementsBySensor(ctx context.Context, sensorID int) ([]models.Measurement, error)
}

type exportLister interface {
	RecentExports(count int64) ([]cache.StoredExport, error)
}

// Deps are the collaborators the HTTP layer serves from. Exports may be nil.
type Deps struct {
	Dashboard *dashboard.Controller
	Sensors   sensorSource
	Reports   *report.Generator
	Charts    *render.PNGRenderer
	Stream    *render.Hub
	Exports   exportLister
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	AccessLog io.Writer
	Logger    *slog.Logger
}

type Server struct {
	router  *mux.Router
	handler http.Handler
	deps    Deps
	log     *slog.Logger
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.AccessLog == nil {
		deps.AccessLog = io.Discard
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
		log:    deps.Logger.With(slog.String("component", "http")),
	}
	s.setupRoutes()

	cors := handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	s.handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(deps.AccessLog, cors(s.router)),
	)
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.instrument)

	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/login", s.loginHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/logout", s.logoutHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/status", s.statusHandler).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth)
	api.HandleFunc("/snapshot", s.snapshotHandler).Methods(http.MethodGet)
	api.HandleFunc("/channels/{channel}", s.channelHandler).Methods(http.MethodGet)
	api.HandleFunc("/channels/{channel}/chart", s.chartHandler).Methods(http.MethodGet)
	api.HandleFunc("/channels/{channel}/chart.png", s.chartImageHandler).Methods(http.MethodGet)
	api.HandleFunc("/refresh", s.refreshHandler).Methods(http.MethodPost)
	api.HandleFunc("/export/json", s.exportJSONHandler).Methods(http.MethodGet)
	api.HandleFunc("/export/summary", s.exportSummaryHandler).Methods(http.MethodGet)
	api.HandleFunc("/exports/recent", s.recentExportsHandler).Methods(http.MethodGet)
	api.HandleFunc("/sensors/{id}/measurements", s.sensorHandler).Methods(http.MethodGet)
	if s.deps.Stream != nil {
		api.Handle("/stream", s.deps.Stream).Methods(http.MethodGet)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// instrument records request count and latency per route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		m := httpsnoop.CaptureMetrics(next, w, r)
		if s.deps.Metrics != nil {
			s.deps.Metrics.ObserveHTTP(r.Method, endpoint, strconv.Itoa(m.Code), m.Duration)
		}
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.deps.Dashboard.Authenticated() {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.log.Info("server is shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("server is ready to handle requests", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("could not gracefully shutdown the server: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
