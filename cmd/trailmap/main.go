package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/trail-map-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/trail-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/trail-map-service/internal/adapter/mapbox"
	"github.com/couchcryptid/trail-map-service/internal/adapter/source"
	"github.com/couchcryptid/trail-map-service/internal/adapter/sqlite"
	"github.com/couchcryptid/trail-map-service/internal/config"
	"github.com/couchcryptid/trail-map-service/internal/domain"
	"github.com/couchcryptid/trail-map-service/internal/mapview"
	"github.com/couchcryptid/trail-map-service/internal/observability"
	"github.com/couchcryptid/trail-map-service/internal/pipeline"
)

func main() {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	styles, err := config.LoadStyles(cfg.StylesPath)
	if err != nil {
		logger.Error("failed to load styles", "error", err, "path", cfg.StylesPath)
		os.Exit(1)
	}

	opts := mapview.DefaultOptions()
	opts.IconStyle = mapview.IconStyle(cfg.IconStyle)
	opts.Clustering = cfg.ClusteringEnabled
	opts.ClusterRadius = cfg.ClusterRadius
	builder, err := mapview.NewBuilder(styles, opts, logger)
	if err != nil {
		logger.Error("invalid map options", "error", err)
		os.Exit(1)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pipelineOpts []pipeline.Option
	pipelineOpts = append(pipelineOpts, pipeline.WithReloadInterval(cfg.ReloadInterval))

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		pipelineOpts = append(pipelineOpts, pipeline.WithPublisher(writer))
		logger.Info("layer publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaLayerTopic)
	}

	var store *sqlite.Store
	if cfg.SnapshotPath != "" {
		store, err = sqlite.Open(ctx, cfg.SnapshotPath)
		if err != nil {
			logger.Error("failed to open snapshot store", "error", err, "path", cfg.SnapshotPath)
			os.Exit(1)
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithSnapshots(store))
		logger.Info("snapshots enabled", "path", cfg.SnapshotPath)
	}

	loader := source.NewClient(cfg.MarkersSource, cfg.FetchTimeout, logger)
	transformer := pipeline.NewTransformer(cfg.LinkBaseURL, geocoder, logger)

	p := pipeline.New(loader, transformer, builder, logger, metrics, pipelineOpts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.CORSAllowedOrigins, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load markers, then keep reloading if an interval is configured.
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if !waitFor(shutdownCtx, pipelineDone) {
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("snapshot store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// waitFor blocks until done is closed or ctx expires, reporting which came first.
func waitFor(ctx context.Context, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
