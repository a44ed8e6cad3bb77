package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"sensor-dashboard/internal/analytics"
	"sensor-dashboard/internal/auth"
	"sensor-dashboard/internal/backend"
	"sensor-dashboard/internal/cache"
	"sensor-dashboard/internal/config"
	"sensor-dashboard/internal/dashboard"
	"sensor-dashboard/internal/logging"
	"sensor-dashboard/internal/metrics"
	"sensor-dashboard/internal/refresh"
	"sensor-dashboard/internal/render"
	"sensor-dashboard/internal/report"
)

func main() {
	configPath := flag.String("config", os.Getenv("DASHBOARD_CONFIG"), "path to the YAML config file")
	flag.Parse()

	boot := logging.New(os.Stderr, logging.Options{})
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logging.New(os.Stderr, logging.Options{Level: cfg.Log.Level, Color: cfg.Log.Color})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	client := backend.New(cfg.Backend.BaseURL, backend.Options{
		Timeout:  cfg.Backend.Timeout,
		Token:    cfg.Backend.Token,
		Location: loc,
		Logger:   log,
		OnMalformed: func(n int) {
			m.RecordsDropped("malformed", n)
		},
	})

	sinks := report.MultiSink{report.NewDirSink(cfg.Export.Dir, log)}
	var exports exportLister
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisClient(cfg.Redis.Addr, cache.Options{
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			TTL:         cfg.Redis.TTL,
			RecentLimit: cfg.Redis.RecentLimit,
			Logger:      log,
		})
		if err != nil {
			log.Warn("redis export store disabled", slog.Any("err", err))
		} else {
			defer rc.Close()
			sinks = append(sinks, rc)
			exports = rc
		}
	}

	pngs := render.NewPNGRenderer(0, 0, log)
	hub := render.NewHub(log)
	renderers := render.Fanout{pngs, hub}
	if cfg.MQTT.Broker != "" {
		mc, err := render.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			log.Warn("mqtt chart publishing disabled", slog.Any("err", err))
		} else {
			defer mc.Disconnect(250)
			renderers = append(renderers, render.NewMQTTPublisher(mc, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS, log))
		}
	}

	analyzer := analytics.NewAnalyzer(loc, log)
	session := auth.NewSession(cfg.Auth.Username, cfg.Auth.Password)
	dash := dashboard.NewController(ctx, session, func() *refresh.Loop {
		return refresh.New(client, analyzer, refresh.Options{
			Interval: cfg.Refresh.Interval,
			Gate:     session,
			Renderer: renderers,
			Observer: m,
			Logger:   log,
		})
	}, log)
	defer dash.Close()

	if cfg.Auth.AutoLogin {
		if err := dash.Login(cfg.Auth.Username, cfg.Auth.Password); err != nil {
			return err
		}
	}

	srv := NewServer(Deps{
		Dashboard: dash,
		Sensors:   client,
		Reports: report.NewGenerator(report.Options{
			Location: loc,
			Sink:     sinks,
			Observer: m,
			Logger:   log,
		}),
		Charts:    pngs,
		Stream:    hub,
		Exports:   exports,
		Metrics:   m,
		Gatherer:  prometheus.DefaultGatherer,
		AccessLog: os.Stdout,
		Logger:    log,
	})
	return srv.Run(ctx, cfg.HTTP.Addr)
}
