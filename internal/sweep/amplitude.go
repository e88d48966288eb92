package sweep

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultSeed     uint64 = 40351
	DefaultBaseline        = -50.0 // dB at boresight
	DefaultSlope           = 1.0   // dB per degree off boresight
	DefaultSigma           = 5.0   // dB
)

// AmplitudeConfig parameterises the synthetic amplitude model.
type AmplitudeConfig struct {
	Seed     uint64  `yaml:"seed" json:"seed"`
	Baseline float64 `yaml:"baseline" json:"baseline"`
	Slope    float64 `yaml:"slope" json:"slope"`
	Sigma    float64 `yaml:"sigma" json:"sigma"`
}

func DefaultAmplitudeConfig() AmplitudeConfig {
	return AmplitudeConfig{
		Seed:     DefaultSeed,
		Baseline: DefaultBaseline,
		Slope:    DefaultSlope,
		Sigma:    DefaultSigma,
	}
}

func (c AmplitudeConfig) Validate() error {
	if c.Sigma < 0 || math.IsNaN(c.Sigma) {
		return NewConfigError(fmt.Sprintf("noise sigma must not be negative, got %g", c.Sigma))
	}
	return nil
}

// AmplitudeModel computes Baseline - Slope*|(az, el)| plus gaussian noise.
// The noise sequence is fully determined by the seed.
type AmplitudeModel struct {
	config AmplitudeConfig
	noise  *distuv.Normal
}

func NewAmplitudeModel(c AmplitudeConfig) (*AmplitudeModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	m := &AmplitudeModel{config: c}
	if c.Sigma > 0 {
		m.noise = &distuv.Normal{
			Mu:    0,
			Sigma: c.Sigma,
			Src:   rand.NewPCG(c.Seed, c.Seed),
		}
	}
	return m, nil
}

// At returns the amplitude for the given pointing and consumes one noise draw.
func (m *AmplitudeModel) At(azimuth, elevation float64) float64 {
	a := m.config.Baseline - m.config.Slope*math.Hypot(azimuth, elevation)
	if m.noise != nil {
		a += m.noise.Rand()
	}
	return a
}
