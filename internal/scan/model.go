package scan

import (
	"math"
	"time"
)

// Sample represents a single telemetry row produced by a raster scan.
type Sample struct {
	Index     int64     `json:"index"`     // Monotonic row counter, starts at 0
	Timestamp time.Time `json:"timestamp"` // UTC instant the sample was taken
	Azimuth   float64   `json:"azimuth"`   // Degrees
	Elevation float64   `json:"elevation"` // Degrees
	Amplitude float64   `json:"amplitude"` // Signal strength in dB
	CutIndex  int       `json:"cutIndex"`  // Incremented on every azimuth reversal
}

// Session represents a single generator run recorded by a store.
type Session struct {
	ID        int64     `json:"ID"`
	StartTime time.Time `json:"startTime"`
	Generator string    `json:"generator"`
	Config    *string   `json:"config,omitempty"` // Pattern configuration in JSON format
}

// Cut is one complete azimuth sweep at a fixed elevation.
type Cut struct {
	Index   int
	Samples []Sample
}

// Extent is the bounding box of a dataset in degrees.
type Extent struct {
	AzimuthMin, AzimuthMax     float64
	ElevationMin, ElevationMax float64
}

var columns = []string{"index", "timestamp", "azimuth", "elevation", "amplitude", "cut_index"}

// Columns returns the canonical CSV header.
func Columns() []string {
	c := make([]string, len(columns))
	copy(c, columns)
	return c
}

// Cuts groups samples by cut index. Cuts are returned in order of first
// appearance and each keeps the row order of its samples.
func Cuts(samples []Sample) []Cut {
	var cuts []Cut
	pos := make(map[int]int)

	for _, s := range samples {
		i, ok := pos[s.CutIndex]
		if !ok {
			i = len(cuts)
			pos[s.CutIndex] = i
			cuts = append(cuts, Cut{Index: s.CutIndex})
		}
		cuts[i].Samples = append(cuts[i].Samples, s)
	}
	return cuts
}

// LatestCut returns the highest cut index of the dataset. It returns false
// if there are no samples.
func LatestCut(samples []Sample) (int, bool) {
	if len(samples) == 0 {
		return 0, false
	}

	latest := samples[0].CutIndex
	for _, s := range samples[1:] {
		latest = max(latest, s.CutIndex)
	}
	return latest, true
}

// ExtentOf returns the azimuth and elevation bounds of the dataset.
func ExtentOf(samples []Sample) (Extent, bool) {
	if len(samples) == 0 {
		return Extent{}, false
	}

	e := Extent{
		AzimuthMin:   math.Inf(1),
		AzimuthMax:   math.Inf(-1),
		ElevationMin: math.Inf(1),
		ElevationMax: math.Inf(-1),
	}
	for _, s := range samples {
		e.AzimuthMin = min(e.AzimuthMin, s.Azimuth)
		e.AzimuthMax = max(e.AzimuthMax, s.Azimuth)
		e.ElevationMin = min(e.ElevationMin, s.Elevation)
		e.ElevationMax = max(e.ElevationMax, s.Elevation)
	}
	return e, true
}
