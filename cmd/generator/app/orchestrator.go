package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/grid-track/internal/metrics"
	"github.com/roman-kulish/grid-track/internal/scan"
	"github.com/roman-kulish/grid-track/internal/storage"
)

// Sweeper produces samples until stopped, see sweep.Generator
type Sweeper interface {
	BeginSweeping(ctx context.Context, samples chan<- scan.Sample) (<-chan error, error)
	Stop()
}

// WithLogger sets the logger used to report every written sample
func WithLogger(logger *slog.Logger) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator runs a sweeper and writes every sample it produces to all
// sinks, in production order.
type Orchestrator struct {
	sweeper Sweeper
	sinks   []storage.Sink
	logger  *slog.Logger
	written int64
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(sweeper Sweeper, sinks []storage.Sink, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		sweeper: sweeper,
		sinks:   sinks,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Written returns the number of samples stored so far
func (o *Orchestrator) Written() int64 {
	return o.written
}

// Run sweeps until the sweeper finishes, ctx is cancelled or a sink fails.
// Samples already produced when the sweep ends are still written.
func (o *Orchestrator) Run(ctx context.Context) error {
	if len(o.sinks) == 0 {
		return errors.New("no sinks to write samples to")
	}

	samples := make(chan scan.Sample, 1)
	done, err := o.sweeper.BeginSweeping(ctx, samples)
	if err != nil {
		return fmt.Errorf("starting sweep: %w", err)
	}

	// a produced sample is always stored, even when ctx is cancelled meanwhile
	writeCtx := context.WithoutCancel(ctx)

	for {
		select {
		case s := <-samples:
			if err = o.store(writeCtx, s); err != nil {
				o.sweeper.Stop()
				return err
			}

		case err = <-done:
			for {
				select {
				case s := <-samples:
					if storeErr := o.store(writeCtx, s); storeErr != nil {
						return errors.Join(err, storeErr)
					}
				default:
					return err
				}
			}
		}
	}
}

func (o *Orchestrator) store(ctx context.Context, s scan.Sample) error {
	batch := []scan.Sample{s}

	var errs []error
	for _, sink := range o.sinks {
		if err := sink.Append(ctx, batch); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("storing sample %d: %w", s.Index, err)
	}

	o.written++
	metrics.SamplesWritten(1)

	o.logger.Info("sample written",
		slog.Int64("index", s.Index),
		slog.Float64("azimuth", s.Azimuth),
		slog.Float64("elevation", s.Elevation),
		slog.Float64("amplitude", s.Amplitude),
		slog.Int("cut", s.CutIndex))

	return nil
}
