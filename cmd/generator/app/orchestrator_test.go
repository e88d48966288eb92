package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/grid-track/internal/scan"
	"github.com/roman-kulish/grid-track/internal/storage"
	"github.com/roman-kulish/grid-track/internal/sweep"
)

type memorySink struct {
	mu      sync.Mutex
	samples []scan.Sample
	failAt  int64
	closed  bool
}

func (s *memorySink) Append(_ context.Context, samples []scan.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sample := range samples {
		if s.failAt > 0 && sample.Index == s.failAt {
			return errors.New("disk full")
		}
		s.samples = append(s.samples, sample)
	}
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGenerator(t *testing.T, limit int64) *sweep.Generator {
	t.Helper()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var n int
	g, err := sweep.NewGenerator(sweep.DefaultPattern(), sweep.DefaultAmplitudeConfig(),
		sweep.WithDelay(0),
		sweep.WithLimit(limit),
		sweep.WithClock(func() time.Time {
			n++
			return start.Add(time.Duration(n) * time.Second)
		}))
	require.NoError(t, err)
	return g
}

func TestOrchestrator_WritesEverySampleToEverySink(t *testing.T) {
	first, second := &memorySink{}, &memorySink{}

	o := NewOrchestrator(newTestGenerator(t, 40), []storage.Sink{first, second})
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, int64(40), o.Written())
	require.Len(t, first.samples, 40)
	assert.Equal(t, first.samples, second.samples)
	for i, s := range first.samples {
		assert.Equal(t, int64(i), s.Index)
	}
	assert.Equal(t, 2, first.samples[39].CutIndex)
}

func TestOrchestrator_SinkFailureStopsTheSweep(t *testing.T) {
	g := newTestGenerator(t, 0)
	sink := &memorySink{failAt: 5}

	err := NewOrchestrator(g, []storage.Sink{sink}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "storing sample 5")
	assert.ErrorContains(t, err, "disk full")

	assert.Len(t, sink.samples, 5)
	assert.False(t, g.IsSweeping())
}

func TestOrchestrator_Cancel(t *testing.T) {
	g, err := sweep.NewGenerator(sweep.DefaultPattern(), sweep.DefaultAmplitudeConfig(),
		sweep.WithDelay(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)

	sink := &memorySink{}
	o := NewOrchestrator(g, []storage.Sink{sink})
	require.NoError(t, o.Run(ctx))

	assert.NotEmpty(t, sink.samples)
	assert.Equal(t, int64(len(sink.samples)), o.Written())
}

func TestOrchestrator_NoSinks(t *testing.T) {
	err := NewOrchestrator(newTestGenerator(t, 1), nil).Run(context.Background())
	assert.Error(t, err)
}

func TestRun_WritesCSV(t *testing.T) {
	dir := t.TempDir()

	c := NewConfig()
	c.Output.CSVPath = filepath.Join(dir, "data", "fake_data.csv")
	c.Output.DBPath = filepath.Join(dir, "scan.sqlite")
	c.Delay = 0
	c.Limit = 20

	ctx := context.Background()
	require.NoError(t, Run(ctx, c, discardLogger()))

	samples, err := storage.NewCSVReader(c.Output.CSVPath).Samples(ctx)
	require.NoError(t, err)
	require.Len(t, samples, 20)
	assert.Equal(t, -80.0, samples[0].Azimuth)
	assert.Equal(t, -80.0, samples[0].Elevation)

	store := storage.NewSqliteStore(c.Output.DBPath)
	defer store.Close()

	mirrored, err := storage.NewSqliteSource(store, 0).Samples(ctx)
	require.NoError(t, err)
	require.Len(t, mirrored, 20)
	assert.Equal(t, samples[19].Index, mirrored[19].Index)
	assert.Equal(t, samples[19].CutIndex, mirrored[19].CutIndex)
}
