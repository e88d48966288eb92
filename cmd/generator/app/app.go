package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roman-kulish/grid-track/internal/metrics"
	"github.com/roman-kulish/grid-track/internal/storage"
	"github.com/roman-kulish/grid-track/internal/sweep"
)

const (
	generatorName   = "raster"
	shutdownTimeout = 5 * time.Second
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	sinks, err := createSinks(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer func() {
		for _, sink := range sinks {
			err = errors.Join(err, sink.Close())
		}
	}()

	if config.MetricsAddr != "" {
		stop := serveMetrics(config.MetricsAddr, logger)
		defer stop()
	}

	generator, err := sweep.NewGenerator(config.Pattern, config.Amplitude,
		sweep.WithLogger(logger),
		sweep.WithDelay(config.Delay.Duration()),
		sweep.WithLimit(config.Limit))
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	orchestrator := NewOrchestrator(generator, sinks, WithLogger(logger))
	if err = orchestrator.Run(ctx); err != nil {
		return err
	}

	logger.Info("generator finished", slog.Int64("samples", orchestrator.Written()))
	return nil
}

func createSinks(ctx context.Context, config *Config, logger *slog.Logger) ([]storage.Sink, error) {
	csvWriter, err := storage.NewCSVWriter(config.Output.CSVPath)
	if err != nil {
		return nil, err
	}
	logger.Info("writing samples", slog.String("csv", csvWriter.Path()))

	sinks := []storage.Sink{csvWriter}
	if config.Output.DBPath == "" {
		return sinks, nil
	}

	session := sessionConfig{
		Pattern:   config.Pattern,
		Amplitude: config.Amplitude,
		Delay:     config.Delay,
	}
	store := storage.NewSqliteStore(config.Output.DBPath)
	sqliteSink, err := storage.NewSqliteSink(ctx, store, generatorName, session)
	if err != nil {
		return nil, errors.Join(err, store.Close(), csvWriter.Close())
	}
	logger.Info("mirroring samples",
		slog.String("db", config.Output.DBPath),
		slog.Int64("session", sqliteSink.SessionID()))

	return append(sinks, sqliteSink), nil
}

// serveMetrics exposes the Prometheus registry on addr until the returned
// function is called.
func serveMetrics(addr string, logger *slog.Logger) func() {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
