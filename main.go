package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/config"
	"github.com/jcaplliure/EntrenadorBasket/internal/database"
	server "github.com/jcaplliure/EntrenadorBasket/internal/http"
	"github.com/jcaplliure/EntrenadorBasket/internal/media"
	"github.com/jcaplliure/EntrenadorBasket/internal/metrics"
	"github.com/jcaplliure/EntrenadorBasket/internal/notifier"
	"github.com/jcaplliure/EntrenadorBasket/internal/notifier/slack"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	log.Info("Database initialization time recorded", "duration_ms", time.Since(startTime).Milliseconds())
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	mediaStore, err := media.New(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %s", err)
	}

	metricsSvc := metrics.NewService(prometheus.DefaultRegisterer)
	metricsHandler := metrics.NewMetricsHandler(prometheus.DefaultGatherer)

	var notify notifier.Notifier = notifier.Noop{}
	if cfg.Slack.Enabled() {
		notify = slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	} else {
		log.Info("Slack is not configured, summaries will not be posted")
	}

	stores := server.NewStores(db, cfg.AdminEmail)
	seeded, err := stores.SiteConfig.SeedDefaults(context.Background())
	if err != nil {
		log.Fatalf("Failed to seed site configuration: %s", err)
	}
	if seeded > 0 {
		log.Info("Seeded site configuration defaults", "keys", seeded)
	}

	s := server.NewServer(stores, metricsSvc, metricsHandler, cfg, notify, mediaStore)

	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server started", "port", cfg.Port, "base_url", cfg.BaseURL)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
