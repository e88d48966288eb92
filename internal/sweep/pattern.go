package sweep

import "fmt"

const (
	DefaultAzimuthMin    = -80.0
	DefaultAzimuthMax    = 80.0
	DefaultAzimuthStep   = 10.0
	DefaultElevationMin  = -80.0
	DefaultElevationMax  = 80.0
	DefaultElevationStep = 10.0
)

// Pattern describes the raster scan: a boustrophedon sweep in azimuth that
// advances elevation by one step on every reversal.
type Pattern struct {
	AzimuthMin    float64 `yaml:"azimuthMin" json:"azimuthMin"`
	AzimuthMax    float64 `yaml:"azimuthMax" json:"azimuthMax"`
	AzimuthStep   float64 `yaml:"azimuthStep" json:"azimuthStep"`
	ElevationMin  float64 `yaml:"elevationMin" json:"elevationMin"`
	ElevationMax  float64 `yaml:"elevationMax" json:"elevationMax"`
	ElevationStep float64 `yaml:"elevationStep" json:"elevationStep"`
}

// DefaultPattern returns the ±80 degrees, 10 degree step pattern.
func DefaultPattern() Pattern {
	return Pattern{
		AzimuthMin:    DefaultAzimuthMin,
		AzimuthMax:    DefaultAzimuthMax,
		AzimuthStep:   DefaultAzimuthStep,
		ElevationMin:  DefaultElevationMin,
		ElevationMax:  DefaultElevationMax,
		ElevationStep: DefaultElevationStep,
	}
}

// Validate checks the pattern for consistency
func (p Pattern) Validate() error {
	switch {
	case p.AzimuthMin >= p.AzimuthMax:
		return NewConfigError(fmt.Sprintf("azimuth min (%g) must be less than max (%g)", p.AzimuthMin, p.AzimuthMax))
	case p.AzimuthStep <= 0:
		return NewConfigError(fmt.Sprintf("azimuth step must be positive, got %g", p.AzimuthStep))
	case p.ElevationMin >= p.ElevationMax:
		return NewConfigError(fmt.Sprintf("elevation min (%g) must be less than max (%g)", p.ElevationMin, p.ElevationMax))
	case p.ElevationStep <= 0:
		return NewConfigError(fmt.Sprintf("elevation step must be positive, got %g", p.ElevationStep))
	}
	return nil
}

// Position is the antenna pointing of a single raster step.
type Position struct {
	Azimuth   float64
	Elevation float64
	CutIndex  int
}

// Raster is the step state machine of a Pattern. The zero value is not
// usable, use NewRaster.
type Raster struct {
	pattern Pattern

	azimuth, elevation float64
	azDir, elDir       float64
	cut                int
}

// NewRaster creates a raster positioned at the lower-left corner of the pattern.
func NewRaster(p Pattern) (*Raster, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &Raster{
		pattern:   p,
		azimuth:   p.AzimuthMin,
		elevation: p.ElevationMin,
		azDir:     p.AzimuthStep,
		elDir:     p.ElevationStep,
	}, nil
}

// Position returns the current pointing without advancing.
func (r *Raster) Position() Position {
	return Position{Azimuth: r.azimuth, Elevation: r.elevation, CutIndex: r.cut}
}

// Next returns the current pointing and advances the raster by one step.
func (r *Raster) Next() Position {
	pos := r.Position()

	r.azimuth += r.azDir
	if r.azimuth > r.pattern.AzimuthMax || r.azimuth < r.pattern.AzimuthMin {
		// undo the overshoot, the bound sample repeats on the next cut
		r.azDir = -r.azDir
		r.azimuth += r.azDir

		r.elevation += r.elDir
		r.cut++

		if r.elevation > r.pattern.ElevationMax || r.elevation < r.pattern.ElevationMin {
			r.elDir = -r.elDir
			r.elevation += r.elDir
		}
	}

	return pos
}
