package chart

import (
	"time"

	"github.com/roman-kulish/grid-track/internal/scan"
)

const (
	DefaultXBins = 20
	DefaultYBins = 20
)

// Config controls how the chart datasets are derived.
type Config struct {
	XBins int // Azimuth bins of the heatmap
	YBins int // Elevation bins of the heatmap
}

func DefaultConfig() Config {
	return Config{XBins: DefaultXBins, YBins: DefaultYBins}
}

// TimePoint is one amplitude reading on the time axis.
type TimePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Snapshot holds every chart dataset derived from one read of the data.
type Snapshot struct {
	SampleCount int         `json:"sampleCount"`
	CutCount    int         `json:"cutCount"`
	LatestCut   int         `json:"latestCut"`
	Extent      scan.Extent `json:"extent"`

	GridProgress  []Point     `json:"gridProgress"`
	Amplitude     []TimePoint `json:"amplitude"`
	AzimuthCuts   []Series    `json:"azimuthCuts"`
	ElevationCuts []Series    `json:"elevationCuts"`
	Heatmap       Heatmap     `json:"heatmap"`
	Bounds        Bounds      `json:"bounds"`
}

// Empty reports whether the snapshot was computed from no samples.
func (s *Snapshot) Empty() bool {
	return s.SampleCount == 0
}

// Compute derives all chart datasets from samples. It keeps no state between
// calls, the same samples always produce an equal snapshot.
func Compute(samples []scan.Sample, c Config) *Snapshot {
	if c.XBins <= 0 {
		c.XBins = DefaultXBins
	}
	if c.YBins <= 0 {
		c.YBins = DefaultYBins
	}

	snap := &Snapshot{
		SampleCount:  len(samples),
		GridProgress: make([]Point, len(samples)),
		Amplitude:    make([]TimePoint, len(samples)),
	}

	for i, s := range samples {
		snap.GridProgress[i] = Point{X: s.Azimuth, Y: s.Elevation}
		snap.Amplitude[i] = TimePoint{Timestamp: s.Timestamp, Value: s.Amplitude}
	}

	snap.LatestCut, _ = scan.LatestCut(samples)
	snap.Extent, _ = scan.ExtentOf(samples)
	snap.AzimuthCuts = CutOverlay(samples, AzimuthAxis)
	snap.ElevationCuts = CutOverlay(samples, ElevationAxis)
	snap.CutCount = len(snap.AzimuthCuts)
	snap.Heatmap = BinAverage(samples, c.XBins, c.YBins)
	snap.Bounds = BoundsOf(snap.Heatmap.Values())

	return snap
}
