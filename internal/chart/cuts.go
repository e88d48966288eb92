package chart

import (
	"strconv"

	"github.com/roman-kulish/grid-track/internal/scan"
)

const (
	HighlightColor = "blue"
	HighlightWidth = 3.0
	NeutralColor   = "gray"
	NeutralWidth   = 0.25
)

// Axis selects the sample coordinate plotted on the X axis of a cut overlay.
type Axis string

const (
	AzimuthAxis   Axis = "azimuth"
	ElevationAxis Axis = "elevation"
)

func (a Axis) value(s scan.Sample) float64 {
	if a == ElevationAxis {
		return s.Elevation
	}
	return s.Azimuth
}

// Point is a single X/Y coordinate of a chart.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is the amplitude profile of one cut.
type Series struct {
	Name      string  `json:"name"`
	CutIndex  int     `json:"cutIndex"`
	Highlight bool    `json:"highlight"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	Points    []Point `json:"points"`
}

// CutOverlay builds one amplitude series per cut, in order of first appearance.
// The series of the latest cut is highlighted, all others are drawn neutral.
func CutOverlay(samples []scan.Sample, axis Axis) []Series {
	latest, ok := scan.LatestCut(samples)
	if !ok {
		return nil
	}

	cuts := scan.Cuts(samples)
	series := make([]Series, len(cuts))
	for i, cut := range cuts {
		s := Series{
			Name:     strconv.Itoa(cut.Index),
			CutIndex: cut.Index,
			Color:    NeutralColor,
			Width:    NeutralWidth,
			Points:   make([]Point, len(cut.Samples)),
		}
		if cut.Index == latest {
			s.Highlight = true
			s.Color = HighlightColor
			s.Width = HighlightWidth
		}
		for j, sample := range cut.Samples {
			s.Points[j] = Point{X: axis.value(sample), Y: sample.Amplitude}
		}
		series[i] = s
	}
	return series
}
