package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/roman-kulish/grid-track/internal/chart"
	"github.com/roman-kulish/grid-track/internal/dashboard"
	"github.com/roman-kulish/grid-track/internal/storage"
)

const shutdownTimeout = 5 * time.Second

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	source, closeSource := createSource(config, logger)
	defer closeSource()

	poller := dashboard.NewPoller(source,
		dashboard.WithLogger(logger),
		dashboard.WithInterval(config.Interval),
		dashboard.WithChartConfig(chart.Config{XBins: config.Bins, YBins: config.Bins}))

	server := dashboard.NewServer(poller,
		dashboard.WithServerLogger(logger),
		dashboard.WithTheme(config.Theme),
		dashboard.WithAssetsHost(config.AssetsHost))

	listener, err := net.Listen("tcp", config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on '%s': %w", config.Addr, err)
	}

	return serve(ctx, listener, server, poller, logger)
}

// serve runs the poller and the HTTP server until ctx is done or the server fails
func serve(ctx context.Context, listener net.Listener, handler http.Handler, poller *dashboard.Poller, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pollerDone := make(chan error, 1)
	go func() {
		pollerDone <- poller.Run(ctx)
	}()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serverDone := make(chan error, 1)
	go func() {
		logger.Info("serving dashboard", slog.String("url", "http://"+listener.Addr().String()))
		serverDone <- srv.Serve(listener)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serverDone:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer shutdownCancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		err = errors.Join(err, fmt.Errorf("shutting down server: %w", shutdownErr))
	}

	cancel()
	return errors.Join(err, <-pollerDone)
}

func createSource(config *Config, logger *slog.Logger) (storage.Source, func()) {
	if config.DBPath != "" {
		store := storage.NewSqliteStore(config.DBPath)
		logger.Info("reading samples",
			slog.String("db", config.DBPath),
			slog.Int64("session", config.SessionID))

		return storage.NewSqliteSource(store, config.SessionID), func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing database", slog.Any("error", err))
			}
		}
	}

	logger.Info("reading samples", slog.String("csv", config.CSVPath))
	return storage.NewCSVReader(config.CSVPath), func() {}
}
