package chart

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/grid-track/internal/scan"
)

func TestCutOverlay_HighlightsLatestCut(t *testing.T) {
	samples := []scan.Sample{
		{Azimuth: -10, Elevation: 0, Amplitude: -60, CutIndex: 0},
		{Azimuth: 0, Elevation: 0, Amplitude: -50, CutIndex: 0},
		{Azimuth: 0, Elevation: 10, Amplitude: -52, CutIndex: 1},
		{Azimuth: -10, Elevation: 10, Amplitude: -61, CutIndex: 1},
	}

	series := CutOverlay(samples, AzimuthAxis)
	require.Len(t, series, 2)

	assert.Equal(t, Series{
		Name:     "0",
		CutIndex: 0,
		Color:    NeutralColor,
		Width:    NeutralWidth,
		Points:   []Point{{X: -10, Y: -60}, {X: 0, Y: -50}},
	}, series[0])

	assert.Equal(t, Series{
		Name:      "1",
		CutIndex:  1,
		Highlight: true,
		Color:     HighlightColor,
		Width:     HighlightWidth,
		Points:    []Point{{X: 0, Y: -52}, {X: -10, Y: -61}},
	}, series[1])
}

func TestCutOverlay_ElevationAxis(t *testing.T) {
	samples := []scan.Sample{
		{Azimuth: -10, Elevation: 20, Amplitude: -60, CutIndex: 4},
		{Azimuth: 0, Elevation: 20, Amplitude: -50, CutIndex: 4},
	}

	series := CutOverlay(samples, ElevationAxis)
	require.Len(t, series, 1)
	assert.Equal(t, []Point{{X: 20, Y: -60}, {X: 20, Y: -50}}, series[0].Points)
	assert.True(t, series[0].Highlight)
}

func TestCutOverlay_HighlightIsAlwaysMaxCut(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 50; round++ {
		n := 1 + rnd.IntN(200)
		samples := make([]scan.Sample, n)
		maxCut := -1
		for i := range samples {
			cut := rnd.IntN(30)
			maxCut = max(maxCut, cut)
			samples[i] = scan.Sample{Index: int64(i), Azimuth: float64(i), Amplitude: -float64(i), CutIndex: cut}
		}

		for _, axis := range []Axis{AzimuthAxis, ElevationAxis} {
			highlighted := 0
			for _, s := range CutOverlay(samples, axis) {
				if s.Highlight {
					highlighted++
					require.Equal(t, maxCut, s.CutIndex, "round %d", round)
					require.Equal(t, HighlightColor, s.Color)
					require.Equal(t, HighlightWidth, s.Width)
				} else {
					require.Equal(t, NeutralColor, s.Color)
					require.Equal(t, NeutralWidth, s.Width)
				}
			}
			require.Equal(t, 1, highlighted, "round %d", round)
		}
	}
}

func TestCutOverlay_Empty(t *testing.T) {
	assert.Nil(t, CutOverlay(nil, AzimuthAxis))
}
