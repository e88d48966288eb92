package render

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/roman-kulish/grid-track/internal/chart"
)

const (
	DefaultCellSize = 24 // Pixels per heatmap cell side

	fontSize       = 12.0
	tickMarkLength = 5
	legendWidth    = 16

	// Default border sizes in pixels
	defaultTopBorder    = 36
	defaultLeftBorder   = 64
	defaultBottomBorder = 44
	defaultRightBorder  = 96
)

// BorderConfig defines the sizes of white space around the heatmap
type BorderConfig struct {
	Top    int // Space for azimuth scale
	Left   int // Space for elevation scale
	Bottom int // Space for information bar
	Right  int // Space for color legend
}

// Config holds all configuration options for heatmap rendering
type Config struct {
	CellSize     int              // Side of one cell in pixels
	FontSize     float64          // Font size in points
	ColorTheme   chart.ColorTheme // Color scheme for amplitude values
	ColorMapSize int              // Number of colors in gradient (0 for default)
	NoAnnotation bool             // Draw cells only, without scales, legend and info

	Borders BorderConfig
}

// HeatmapRenderer draws binned amplitude averages as an annotated still image
type HeatmapRenderer struct {
	colorMap *chart.ColorMapper
	config   Config
}

// NewHeatmapRenderer creates a renderer with the given configuration, zero
// values are replaced with defaults.
func NewHeatmapRenderer(config Config) (*HeatmapRenderer, error) {
	if config.CellSize < 0 {
		return nil, errors.New("cell size must not be negative")
	}
	if config.CellSize == 0 {
		config.CellSize = DefaultCellSize
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.ColorTheme == "" {
		config.ColorTheme = chart.DefaultColorTheme
	}
	if config.ColorMapSize == 0 {
		config.ColorMapSize = chart.DefaultColorMapSize
	}

	if config.NoAnnotation {
		config.Borders = BorderConfig{}
	} else {
		if config.Borders.Top == 0 {
			config.Borders.Top = defaultTopBorder
		}
		if config.Borders.Left == 0 {
			config.Borders.Left = defaultLeftBorder
		}
		if config.Borders.Bottom == 0 {
			config.Borders.Bottom = defaultBottomBorder
		}
		if config.Borders.Right == 0 {
			config.Borders.Right = defaultRightBorder
		}
	}

	return &HeatmapRenderer{config: config}, nil
}

// Render creates an image of the snapshot heatmap. Bins without samples stay
// blank.
func (r *HeatmapRenderer) Render(snap *chart.Snapshot) (*image.RGBA, error) {
	h := &snap.Heatmap
	cell := r.config.CellSize
	b := r.config.Borders

	width := len(h.XBins) * cell
	height := len(h.YBins) * cell
	img := image.NewRGBA(image.Rect(0, 0, width+b.Left+b.Right, height+b.Top+b.Bottom))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(b.Left, b.Top, b.Left+width, b.Top+height)

	if r.colorMap == nil {
		r.colorMap = chart.NewColorMapperWithSize(r.config.ColorTheme, snap.Bounds, r.config.ColorMapSize)
	} else {
		r.colorMap.UpdateBounds(snap.Bounds)
	}

	r.renderCells(img, area, h)

	if r.config.NoAnnotation {
		return img, nil
	}

	ann, err := newAnnotator(r.config.FontSize, r.colorMap)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img, area, snap); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}
	return img, nil
}

// renderCells fills one block per non-empty cell, lowest elevation at the bottom
func (r *HeatmapRenderer) renderCells(img *image.RGBA, area image.Rectangle, h *chart.Heatmap) {
	cell := r.config.CellSize
	for y := range h.YBins {
		for x := range h.XBins {
			c, ok := h.Cell(x, y)
			if !ok {
				continue
			}

			x0 := area.Min.X + x*cell
			y0 := area.Max.Y - (y+1)*cell
			block := image.Rect(x0, y0, x0+cell, y0+cell)

			draw.Draw(img, block, image.NewUniform(r.colorMap.GetColor(c.Mean)), image.Point{}, draw.Src)
		}
	}
}
