package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/grid-track/internal/scan"
)

// DefaultDelay is the pause between two consecutive samples
const DefaultDelay = 2500 * time.Millisecond

// WithLogger sets the logger for the generator
func WithLogger(logger *slog.Logger) func(g *Generator) {
	return func(g *Generator) {
		g.logger = logger.With(slog.String("generator", "raster"))
	}
}

// WithDelay sets the pause between samples
func WithDelay(d time.Duration) func(g *Generator) {
	return func(g *Generator) {
		g.delay = d
	}
}

// WithLimit stops the generator after n samples. Zero means no limit.
func WithLimit(n int64) func(g *Generator) {
	return func(g *Generator) {
		g.limit = n
	}
}

// WithClock replaces the wall clock used for sample timestamps
func WithClock(now func() time.Time) func(g *Generator) {
	return func(g *Generator) {
		g.now = now
	}
}

// Generator produces synthetic raster scan samples, one per delay.
type Generator struct {
	raster    *Raster
	amplitude *AmplitudeModel
	index     int64

	delay time.Duration
	limit int64
	now   func() time.Time

	isSweeping atomic.Bool
	mu         sync.Mutex // guards cancel
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	logger *slog.Logger
}

// NewGenerator creates a new Generator instance with a discard logger
func NewGenerator(p Pattern, a AmplitudeConfig, options ...func(g *Generator)) (*Generator, error) {
	raster, err := NewRaster(p)
	if err != nil {
		return nil, fmt.Errorf("creating raster: %w", err)
	}

	model, err := NewAmplitudeModel(a)
	if err != nil {
		return nil, fmt.Errorf("creating amplitude model: %w", err)
	}

	g := Generator{
		raster:    raster,
		amplitude: model,
		delay:     DefaultDelay,
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&g)
	}

	return &g, nil
}

// Next produces the next sample and advances the raster.
func (g *Generator) Next() scan.Sample {
	pos := g.raster.Next()

	s := scan.Sample{
		Index:     g.index,
		Timestamp: g.now().UTC(),
		Azimuth:   pos.Azimuth,
		Elevation: pos.Elevation,
		Amplitude: g.amplitude.At(pos.Azimuth, pos.Elevation),
		CutIndex:  pos.CutIndex,
	}
	g.index++

	return s
}

// BeginSweeping starts producing samples into the samples channel. The returned
// channel is closed once the generator stops and carries the terminal error,
// if any.
func (g *Generator) BeginSweeping(ctx context.Context, samples chan<- scan.Sample) (<-chan error, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isSweeping.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	sweepingStopped := make(chan error, 1)

	g.wg.Add(1)
	go func() {
		defer close(sweepingStopped)
		defer g.wg.Done()
		defer g.isSweeping.Store(false)
		defer cancel()

		g.logger.Info("starting raster sweep...", slog.Duration("delay", g.delay), slog.Int64("limit", g.limit))

		if err := g.run(ctx, samples); err != nil {
			sweepingStopped <- err
		}

		g.logger.Info("raster sweep stopped", slog.Int64("samples", g.index))
	}()

	return sweepingStopped, nil
}

func (g *Generator) run(ctx context.Context, samples chan<- scan.Sample) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for g.limit == 0 || g.index < g.limit {
		select {
		case <-ctx.Done():
			return ignoreCanceled(ctx.Err())
		case <-timer.C:
		}

		select {
		case samples <- g.Next():
		case <-ctx.Done():
			return ignoreCanceled(ctx.Err())
		}

		timer.Reset(g.delay)
	}
	return nil
}

// Stop cancels a running generator and waits for it to finish
func (g *Generator) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()

	if cancel == nil || !g.isSweeping.Load() {
		return // never started or already stopped
	}

	cancel()
	g.wg.Wait()
}

// IsSweeping returns true if the generator is running
func (g *Generator) IsSweeping() bool {
	return g.isSweeping.Load()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
