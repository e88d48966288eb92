package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/grid-track/internal/chart"
	"github.com/roman-kulish/grid-track/internal/render"
	"github.com/roman-kulish/grid-track/internal/scan"
	"github.com/roman-kulish/grid-track/internal/storage"
)

// minColorRange keeps a flat heatmap from collapsing the color scale
const minColorRange = 1.0 // dB

// ListSessions prints the sessions of the configured database, oldest first.
func ListSessions(ctx context.Context, config *Config, out io.Writer) error {
	store, err := openStore(config.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\t\tGENERATOR")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			s.ID, s.StartTime.UTC().Format(time.RFC3339), humanize.Time(s.StartTime), s.Generator)
	}
	return tw.Flush()
}

func openStore(path string) (*storage.SqliteStore, error) {
	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) {
		return nil, fmt.Errorf("database file '%s' does not exist: %w", path, err)
	}
	return storage.NewSqliteStore(path), nil
}

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	var (
		samples []scan.Sample
		err     error
	)
	if config.DBPath != "" {
		var store *storage.SqliteStore
		if store, err = openStore(config.DBPath); err != nil {
			return err
		}
		defer store.Close()

		samples, err = readSession(ctx, store, config, logger)
	} else {
		samples, err = readCSV(ctx, config, logger)
	}
	if err != nil {
		return err
	}

	snap := chart.Compute(samples, chart.Config{XBins: config.Bins, YBins: config.Bins})
	if snap.Empty() {
		logger.Warn("no samples matched, rendering an empty heatmap")
	} else if config.Clip > 0 {
		snap.Bounds = chart.PercentileBounds(snap.Heatmap.Values(), config.Clip, 1-config.Clip)
	}
	snap.Bounds = snap.Bounds.WithMinimumRange(minColorRange)

	logger.Info("finished reading samples",
		slog.Group("stats",
			slog.String("samples", humanize.Comma(int64(snap.SampleCount))),
			slog.Int("cuts", snap.CutCount),
			slog.String("minAmplitude", fmt.Sprintf("%0.2fdB", snap.Bounds.Min)),
			slog.String("maxAmplitude", fmt.Sprintf("%0.2fdB", snap.Bounds.Max)),
		))

	renderer, err := render.NewHeatmapRenderer(render.Config{
		CellSize:     config.CellSize,
		ColorTheme:   config.Theme,
		NoAnnotation: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating heatmap renderer: %w", err)
	}

	img, err := renderer.Render(snap)
	if err != nil {
		return fmt.Errorf("rendering heatmap: %w", err)
	}

	logger.Info("writing heatmap",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
		))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}

	err = render.Encode(out, img, config.Format)
	return errors.Join(err, out.Close())
}

func readSession(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) ([]scan.Sample, error) {
	sessionID := config.SessionID
	if sessionID == 0 {
		session, err := store.LatestSession(ctx)
		if err != nil {
			return nil, err
		}
		sessionID = session.ID
	}

	var opts []storage.ReaderOption
	var filters []any
	switch {
	case config.MinCut != nil && config.MaxCut != nil:
		opts = append(opts, storage.WithCutRange(*config.MinCut, *config.MaxCut))
		filters = append(filters, slog.Int("minCut", *config.MinCut), slog.Int("maxCut", *config.MaxCut))

	case config.MinCut != nil:
		opts = append(opts, storage.WithMinCut(*config.MinCut))
		filters = append(filters, slog.Int("minCut", *config.MinCut))

	case config.MaxCut != nil:
		opts = append(opts, storage.WithMaxCut(*config.MaxCut))
		filters = append(filters, slog.Int("maxCut", *config.MaxCut))
	}

	// single-sided time bounds are applied after reading
	if config.MinTimestamp != nil && config.MaxTimestamp != nil {
		opts = append(opts, storage.WithTimeRange(*config.MinTimestamp, *config.MaxTimestamp))
	}
	if config.MinTimestamp != nil {
		filters = append(filters, slog.String("minTimestamp", config.MinTimestamp.Format(time.DateTime)))
	}
	if config.MaxTimestamp != nil {
		filters = append(filters, slog.String("maxTimestamp", config.MaxTimestamp.Format(time.DateTime)))
	}

	logger.Info("iterator configuration", append(filters, slog.Int64("session", sessionID))...)

	iter, err := store.ReadSamples(ctx, sessionID, opts...)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var samples []scan.Sample
	for iter.Next(ctx) {
		cut := iter.Current()
		logger.Debug("cut read", slog.Int("cut", cut.Index), slog.Int("samples", len(cut.Samples)))

		samples = append(samples, cut.Samples...)
	}
	if err = iter.Error(); err != nil {
		return nil, err
	}

	return filterSamples(samples, config), nil
}

func readCSV(ctx context.Context, config *Config, logger *slog.Logger) ([]scan.Sample, error) {
	logger.Info("reading samples", slog.String("csv", config.CSVPath))

	samples, err := storage.NewCSVReader(config.CSVPath).Samples(ctx)
	if err != nil {
		return nil, err
	}
	return filterSamples(samples, config), nil
}

// filterSamples drops samples outside the configured cut and time ranges
func filterSamples(samples []scan.Sample, config *Config) []scan.Sample {
	kept := samples[:0]
	for _, s := range samples {
		switch {
		case config.MinCut != nil && s.CutIndex < *config.MinCut:
		case config.MaxCut != nil && s.CutIndex > *config.MaxCut:
		case config.MinTimestamp != nil && s.Timestamp.Before(*config.MinTimestamp):
		case config.MaxTimestamp != nil && s.Timestamp.After(*config.MaxTimestamp):
		default:
			kept = append(kept, s)
		}
	}
	return kept
}
