package chart

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/grid-track/internal/scan"
)

// Bin is a half-open interval [Lo, Hi) of an axis.
type Bin struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

func (b Bin) Center() float64 {
	return (b.Lo + b.Hi) / 2
}

// Cell is the aggregate of all samples falling into one azimuth/elevation bin.
type Cell struct {
	X     int     `json:"x"` // Azimuth bin index
	Y     int     `json:"y"` // Elevation bin index
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Heatmap is a 2D binned average of amplitude over azimuth and elevation.
// Only non-empty cells are stored, ordered by Y and then X.
type Heatmap struct {
	XBins []Bin  `json:"xBins"`
	YBins []Bin  `json:"yBins"`
	Cells []Cell `json:"cells"`
}

// Cell returns the cell at the given bin indexes, if it holds any sample.
func (h *Heatmap) Cell(x, y int) (Cell, bool) {
	i, ok := slices.BinarySearchFunc(h.Cells, [2]int{y, x}, func(c Cell, key [2]int) int {
		if c.Y != key[0] {
			return c.Y - key[0]
		}
		return c.X - key[1]
	})
	if !ok {
		return Cell{}, false
	}
	return h.Cells[i], true
}

// Values returns the cell means in cell order.
func (h *Heatmap) Values() []float64 {
	values := make([]float64, len(h.Cells))
	for i, c := range h.Cells {
		values[i] = c.Mean
	}
	return values
}

// BinAverage splits the extent of the samples into at most nx by ny bins and
// averages the amplitude of every bin. The bin width of an axis is the
// smallest 1, 2, 2.5 or 5 times a power of ten that is at least extent/n, and
// the first bin starts half a width below the minimum. A raster sampled at a
// fixed step therefore gets one bin per grid line instead of periodic empty
// stripes.
func BinAverage(samples []scan.Sample, nx, ny int) Heatmap {
	extent, ok := scan.ExtentOf(samples)
	if !ok || nx <= 0 || ny <= 0 {
		return Heatmap{}
	}

	h := Heatmap{
		XBins: axisBins(extent.AzimuthMin, extent.AzimuthMax, nx),
		YBins: axisBins(extent.ElevationMin, extent.ElevationMax, ny),
	}

	groups := make(map[[2]int][]float64)
	for _, s := range samples {
		key := [2]int{
			binIndex(s.Elevation, h.YBins),
			binIndex(s.Azimuth, h.XBins),
		}
		groups[key] = append(groups[key], s.Amplitude)
	}

	h.Cells = make([]Cell, 0, len(groups))
	for key, values := range groups {
		h.Cells = append(h.Cells, Cell{
			X:     key[1],
			Y:     key[0],
			Mean:  stat.Mean(values, nil),
			Count: len(values),
		})
	}
	slices.SortFunc(h.Cells, func(a, b Cell) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})

	return h
}

// niceSteps are the mantissas of the allowed bin widths
var niceSteps = [...]float64{1, 2, 2.5, 5}

func axisBins(lo, hi float64, n int) []Bin {
	if hi <= lo {
		return []Bin{{Lo: lo - 0.5, Hi: lo + 0.5}} // a single distinct value still gets a unit-wide axis
	}

	width := niceWidth((hi - lo) / float64(n))
	start, count := alignBins(lo, hi, width)
	for count > n {
		width = niceWidth(width * (1 + 1e-6))
		start, count = alignBins(lo, hi, width)
	}

	bins := make([]Bin, count)
	for i := range bins {
		bins[i] = Bin{Lo: start + float64(i)*width, Hi: start + float64(i+1)*width}
	}
	return bins
}

// alignBins centers the first bin on lo and returns its lower edge and the
// number of bins needed to reach hi.
func alignBins(lo, hi, width float64) (float64, int) {
	start := lo - width/2
	return start, int(math.Floor((hi-start)/width)) + 1
}

// niceWidth returns the smallest step of the 1-2-2.5-5 series not below x.
func niceWidth(x float64) float64 {
	base := math.Pow(10, math.Floor(math.Log10(x)))
	for {
		for _, m := range niceSteps {
			if w := m * base; w >= x*(1-1e-9) {
				return w
			}
		}
		base *= 10
	}
}

func binIndex(v float64, bins []Bin) int {
	lo := bins[0].Lo
	width := bins[0].Hi - bins[0].Lo

	i := int(math.Floor((v - lo) / width))
	return max(0, min(i, len(bins)-1))
}
