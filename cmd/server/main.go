package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/flood-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/dataset"
	"github.com/couchcryptid/flood-risk-service/internal/gridindex"
	"github.com/couchcryptid/flood-risk-service/internal/inference"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Missing artifacts degrade the service instead of stopping it:
	// /health reports model_loaded=false and predictions return 503.
	artifacts := inference.LoadArtifacts(inference.Paths{
		Model:   cfg.ModelPath,
		Scaler:  cfg.ScalerPath,
		Encoder: cfg.EncoderPath,
	})
	for _, s := range artifacts.Statuses() {
		if s.Loaded() {
			metrics.ArtifactLoaded.WithLabelValues(s.Name).Set(1)
			logger.Info("artifact loaded", "artifact", s.Name, "path", s.Path)
			continue
		}
		metrics.ArtifactLoaded.WithLabelValues(s.Name).Set(0)
		logger.Warn("artifact not loaded", "artifact", s.Name, "path", s.Path, "error", s.Err)
	}
	if artifacts.Available() {
		logger.Info("model ready", "kind", artifacts.ModelKind(), "labels", artifacts.Labels())
	}
	predictor := inference.NewPredictor(artifacts)

	grids := gridindex.NewLazy(cfg.GridIndexPaths, logger)
	locator := gridindex.NewCachedLocator(grids, cfg.GridCacheSize, metrics)
	rows := dataset.NewLazy(cfg.DatasetPath, logger)
	if cfg.PreloadData {
		grids.Available()
		rows.Available()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The publisher outlives the signal context so events from requests
	// still in flight during HTTP shutdown are flushed.
	eventsCtx, stopEvents := context.WithCancel(context.Background())
	defer stopEvents()

	var (
		sink      pipeline.EventSink
		publisher *kafkaadapter.Publisher
		published = make(chan struct{})
	)
	if cfg.EventsEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		sink = publisher
		logger.Info("prediction events enabled", "topic", cfg.KafkaPredictionTopic, "brokers", cfg.KafkaBrokers)

		go func() {
			defer close(published)
			if err := publisher.Run(eventsCtx); err != nil {
				logger.Error("event publisher error", "error", err)
			}
		}()
	} else {
		close(published)
		logger.Info("prediction events disabled")
	}

	p := pipeline.New(predictor, locator, rows, sink, cfg.Region, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.ExposeErrorTrace, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	shutdown(shutdownCtx, srv, stopEvents, published, logger)
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

type httpShutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown drains HTTP requests first, then stops the event publisher and
// waits for its final flush.
func shutdown(ctx context.Context, srv httpShutdowner, stopEvents context.CancelFunc, published <-chan struct{}, logger *slog.Logger) {
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	stopEvents()
	select {
	case <-published:
	case <-ctx.Done():
		logger.Warn("event publisher did not drain before shutdown timeout")
	}
}
