package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme represents a predefined color scheme for amplitude visualization.
type ColorTheme string

const (
	DivergingTheme ColorTheme = "diverging" // Blue through white to red
	ClassicTheme   ColorTheme = "classic"   // Blue to red hue sweep
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white

	DefaultColorTheme   = DivergingTheme
	DefaultColorMapSize = 256 // Default number of colors in the map
)

// Themes lists every supported theme
var Themes = []ColorTheme{DivergingTheme, ClassicTheme, GrayscaleTheme, JungleTheme, ThermalTheme, MarineTheme}

// ParseColorTheme validates a theme name. An empty name selects the default.
func ParseColorTheme(name string) (ColorTheme, error) {
	if name == "" {
		return DefaultColorTheme, nil
	}
	for _, t := range Themes {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown color theme '%s'", name)
}

// divergingStops is the reversed red-blue ColorBrewer scale, low values blue.
var divergingStops = []string{
	"#053061", "#2166ac", "#4393c3", "#92c5de", "#d1e5f0", "#f7f7f7",
	"#fddbc7", "#f4a582", "#d6604d", "#b2182b", "#67001f",
}

// ColorMapper provides efficient amplitude-to-color mapping with support for
// different color themes and dynamic bounds adjustment
type ColorMapper struct {
	colorMap    []colorful.Color // Pre-computed colors
	theme       func(float64) colorful.Color
	themeName   ColorTheme
	size        int
	valuePerIdx float64
	boundsMin   float64
}

// NewColorMapper creates a new color mapper with specified theme and bounds.
func NewColorMapper(theme ColorTheme, bounds Bounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a new color mapper with specified size.
func NewColorMapperWithSize(theme ColorTheme, bounds Bounds, size int) *ColorMapper {
	if size <= 1 {
		size = DefaultColorMapSize
	}

	cm := &ColorMapper{
		colorMap:  make([]colorful.Color, size),
		theme:     getColorTheme(theme),
		themeName: theme,
		size:      size,
	}
	for i := 0; i < cm.size; i++ {
		cm.colorMap[i] = cm.theme(float64(i) / float64(cm.size-1)).Clamped()
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds updates the value range mapped onto the theme
func (cm *ColorMapper) UpdateBounds(bounds Bounds) {
	r := bounds.Range()
	if r <= 0 {
		r = 1
	}
	cm.boundsMin = bounds.Min
	cm.valuePerIdx = r / float64(cm.size-1)
}

func (cm *ColorMapper) index(value float64) int {
	if math.IsNaN(value) {
		return 0
	}
	i := int(math.Round((value - cm.boundsMin) / cm.valuePerIdx))
	return max(0, min(i, cm.size-1))
}

// GetColor returns a color for the given value, clamped to the bounds
func (cm *ColorMapper) GetColor(value float64) color.Color {
	return cm.colorMap[cm.index(value)]
}

// Palette returns n colors evenly spread over the theme, low to high.
func (cm *ColorMapper) Palette(n int) []string {
	if n < 2 {
		n = 2
	}

	p := make([]string, n)
	for i := range p {
		p[i] = cm.theme(float64(i) / float64(n-1)).Clamped().Hex()
	}
	return p
}

// ThemeName returns the current color theme name
func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

func gradient(stops []string) func(float64) colorful.Color {
	colors := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			panic(fmt.Sprintf("invalid color stop %q: %v", s, err))
		}
		colors[i] = c
	}

	return func(v float64) colorful.Color {
		pos := v * float64(len(colors)-1)
		i := int(math.Floor(pos))
		if i >= len(colors)-1 {
			return colors[len(colors)-1]
		}
		if f := pos - float64(i); f > 0 {
			return colors[i].BlendLab(colors[i+1], f)
		}
		return colors[i]
	}
}

// Color theme implementations, v is normalized to [0, 1]
func getColorTheme(theme ColorTheme) func(float64) colorful.Color {
	var fn func(float64) colorful.Color

	switch theme {
	case ClassicTheme:
		fn = func(v float64) colorful.Color {
			return colorful.Hsv(240-(v*240), 0.9+(v*0.1), math.Pow(v, 0.7))
		}

	case GrayscaleTheme:
		fn = func(v float64) colorful.Color {
			g := math.Pow(v, 0.7)
			return colorful.Color{R: g, G: g, B: g}
		}

	case JungleTheme:
		fn = func(v float64) colorful.Color {
			return colorful.Hsv(120-(v*60), 1.0, 0.3+(math.Pow(v, 0.6)*0.7))
		}

	case ThermalTheme:
		fn = func(v float64) colorful.Color {
			switch {
			case v < 1.0/3:
				return colorful.Color{R: v * 3}
			case v < 2.0/3:
				return colorful.Color{R: 1, G: (v - 1.0/3) * 3}
			default:
				return colorful.Color{R: 1, G: 1, B: (v - 2.0/3) * 3}
			}
		}

	case MarineTheme:
		fn = func(v float64) colorful.Color {
			return colorful.Hsv(240-(v*60), 1.0-(v*0.8), 0.3+(math.Pow(v, 0.6)*0.7))
		}

	default:
		fn = gradient(divergingStops)
	}

	return func(v float64) colorful.Color {
		return fn(math.Max(0, math.Min(1, v)))
	}
}
