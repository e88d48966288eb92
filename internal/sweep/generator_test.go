package sweep

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/grid-track/internal/scan"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, options ...func(g *Generator)) *Generator {
	t.Helper()

	options = append([]func(g *Generator){
		WithClock(func() time.Time { return fixedTime }),
		WithDelay(time.Millisecond),
	}, options...)

	g, err := NewGenerator(DefaultPattern(), DefaultAmplitudeConfig(), options...)
	require.NoError(t, err)
	return g
}

func TestGenerator_Next(t *testing.T) {
	g := newTestGenerator(t)

	first := g.Next()
	assert.Equal(t, int64(0), first.Index)
	assert.Equal(t, fixedTime, first.Timestamp)
	assert.Equal(t, -80.0, first.Azimuth)
	assert.Equal(t, -80.0, first.Elevation)
	assert.Equal(t, 0, first.CutIndex)

	second := g.Next()
	assert.Equal(t, int64(1), second.Index)
	assert.Equal(t, -70.0, second.Azimuth)
}

func TestGenerator_DeterministicForSeed(t *testing.T) {
	a, b := newTestGenerator(t), newTestGenerator(t)

	for i := 0; i < 100; i++ {
		require.Equal(t, a.Next(), b.Next(), "sample %d", i)
	}
}

func TestGenerator_TimestampIsUTC(t *testing.T) {
	local := time.FixedZone("UTC+3", 3*60*60)
	g := newTestGenerator(t, WithClock(func() time.Time { return fixedTime.In(local) }))

	s := g.Next()
	assert.Equal(t, time.UTC, s.Timestamp.Location())
	assert.True(t, s.Timestamp.Equal(fixedTime))
}

func TestGenerator_BeginSweepingWithLimit(t *testing.T) {
	g := newTestGenerator(t, WithLimit(5))

	samples := make(chan scan.Sample, 10)
	done, err := g.BeginSweeping(context.Background(), samples)
	require.NoError(t, err)

	select {
	case err, ok := <-done:
		if ok {
			require.NoError(t, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("generator did not stop after reaching the limit")
	}

	close(samples)
	var got []scan.Sample
	for s := range samples {
		got = append(got, s)
	}

	require.Len(t, got, 5)
	for i, s := range got {
		assert.Equal(t, int64(i), s.Index)
	}
	assert.False(t, g.IsSweeping())
}

func TestGenerator_StopCancelsSweep(t *testing.T) {
	g := newTestGenerator(t, WithDelay(time.Hour))

	samples := make(chan scan.Sample, 1)
	done, err := g.BeginSweeping(context.Background(), samples)
	require.NoError(t, err)

	// the first sample is emitted without delay
	select {
	case <-samples:
	case <-time.After(5 * time.Second):
		t.Fatal("no sample received")
	}
	assert.True(t, g.IsSweeping())

	_, err = g.BeginSweeping(context.Background(), samples)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	g.Stop()
	assert.False(t, g.IsSweeping())

	err, ok := <-done
	assert.False(t, ok, "expected done to be closed without error, got %v", err)
}

func TestGenerator_StopBeforeBegin(t *testing.T) {
	g := newTestGenerator(t)
	assert.NotPanics(t, g.Stop)
	assert.False(t, g.IsSweeping())
}

func TestGenerator_StopRacesBeginSweeping(t *testing.T) {
	for i := 0; i < 50; i++ {
		g := newTestGenerator(t, WithDelay(time.Hour))
		samples := make(chan scan.Sample, 1)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Stop()
		}()

		done, err := g.BeginSweeping(context.Background(), samples)
		require.NoError(t, err)
		wg.Wait()

		// the concurrent Stop may have run before the sweep started
		g.Stop()
		assert.False(t, g.IsSweeping())

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("generator did not stop")
		}
	}
}

func TestGenerator_ContextCancellation(t *testing.T) {
	g := newTestGenerator(t)

	ctx, cancel := context.WithCancel(context.Background())
	samples := make(chan scan.Sample) // unbuffered and never drained

	done, err := g.BeginSweeping(ctx, samples)
	require.NoError(t, err)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("generator ignored context cancellation")
	}
}

func TestNewGenerator_InvalidPattern(t *testing.T) {
	p := DefaultPattern()
	p.AzimuthStep = 0

	_, err := NewGenerator(p, DefaultAmplitudeConfig())
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
