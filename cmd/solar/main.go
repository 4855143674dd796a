package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/solar-estimate-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/solar-estimate-service/internal/adapter/kafka"
	"github.com/couchcryptid/solar-estimate-service/internal/adapter/nasapower"
	"github.com/couchcryptid/solar-estimate-service/internal/adapter/pvgis"
	"github.com/couchcryptid/solar-estimate-service/internal/config"
	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	"github.com/couchcryptid/solar-estimate-service/internal/estimate"
	"github.com/couchcryptid/solar-estimate-service/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	climatology := nasapower.NewClient(cfg.PowerBaseURL, cfg.PowerTimeout, logger, metrics)
	pv := pvgis.NewClient(cfg.PVGISBaseURL, cfg.PVGISTimeout, logger, metrics)

	opts := estimate.Options{
		Defaults: domain.Orientation{TiltDeg: cfg.DefaultTiltDeg, AzimuthDeg: cfg.DefaultAzimuthDeg},
		Parallel: cfg.ParallelFetch,
	}

	// Estimate events are optional (ESTIMATE_EVENTS_ENABLED / KAFKA_BROKERS).
	var writer *kafkaadapter.Writer
	if cfg.EventsEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts.Publisher = writer
		metrics.EventsEnabled.Set(1)
		logger.Info("estimate events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaEstimateTopic)
	} else {
		logger.Info("estimate events disabled")
	}

	svc := estimate.NewService(climatology, pv, opts, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	svc.Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
