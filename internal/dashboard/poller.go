package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/grid-track/internal/chart"
	"github.com/roman-kulish/grid-track/internal/metrics"
	"github.com/roman-kulish/grid-track/internal/storage"
)

const DefaultInterval = 250 * time.Millisecond

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithLogger sets the logger used to report refresh failures.
func WithLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithInterval sets the refresh interval. Non-positive values are ignored.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithChartConfig sets how the chart datasets are derived.
func WithChartConfig(c chart.Config) PollerOption {
	return func(p *Poller) {
		p.config = c
	}
}

// Poller periodically reads the whole dataset and keeps the chart snapshot
// computed from it. Readers always see a complete snapshot.
type Poller struct {
	source   storage.Source
	config   chart.Config
	interval time.Duration
	logger   *slog.Logger

	snapshot  atomic.Pointer[chart.Snapshot]
	updatedAt atomic.Int64 // Unix nanoseconds of the last successful refresh
	failures  atomic.Int64 // Consecutive failed refreshes
}

func NewPoller(source storage.Source, options ...PollerOption) *Poller {
	p := &Poller{
		source:   source,
		config:   chart.DefaultConfig(),
		interval: DefaultInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(p)
	}

	p.snapshot.Store(chart.Compute(nil, p.config))
	return p
}

// Snapshot returns the last successfully computed snapshot. Before the first
// refresh it is the empty snapshot.
func (p *Poller) Snapshot() *chart.Snapshot {
	return p.snapshot.Load()
}

// UpdatedAt returns the time of the last successful refresh, zero if none.
func (p *Poller) UpdatedAt() time.Time {
	ns := p.updatedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Failures returns the number of refreshes that failed since the last success.
func (p *Poller) Failures() int64 {
	return p.failures.Load()
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Refresh reads the source once and replaces the snapshot. On error the
// previous snapshot is kept.
func (p *Poller) Refresh(ctx context.Context) error {
	start := time.Now()

	samples, err := p.source.Samples(ctx)
	if err != nil {
		p.failures.Add(1)
		metrics.ObserveRefresh(time.Since(start), 0, 0, err)
		return fmt.Errorf("read samples: %w", err)
	}

	snap := chart.Compute(samples, p.config)
	p.snapshot.Store(snap)
	p.updatedAt.Store(time.Now().UnixNano())
	p.failures.Store(0)

	metrics.ObserveRefresh(time.Since(start), snap.SampleCount, snap.CutCount, nil)
	return nil
}

// Run refreshes immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ignoreCanceled(ctx.Err())
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("refresh failed, keeping previous charts",
			slog.Any("error", err),
			slog.Int64("failures", p.failures.Load()))
		return
	}
	p.logger.Debug("charts refreshed",
		slog.Int("samples", p.Snapshot().SampleCount),
		slog.Int("cuts", p.Snapshot().CutCount))
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
