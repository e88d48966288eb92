package app

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/grid-track/internal/config"
	"github.com/roman-kulish/grid-track/internal/sweep"
)

func parseArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	fs := flag.NewFlagSet("generator", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return NewConfigFromArgs(fs, args)
}

func TestNewConfigFromArgs_Defaults(t *testing.T) {
	t.Setenv(config.EnvCSVPath, "")
	t.Setenv(config.EnvDBPath, "")

	c, err := parseArgs(t)
	require.NoError(t, err)

	assert.Equal(t, defaultCSVPath, c.Output.CSVPath)
	assert.Empty(t, c.Output.DBPath)
	assert.Equal(t, sweep.DefaultDelay, c.Delay.Duration())
	assert.Equal(t, sweep.DefaultPattern(), c.Pattern)
	assert.Equal(t, sweep.DefaultSeed, c.Amplitude.Seed)
	assert.Zero(t, c.Limit)
}

func TestNewConfigFromArgs_Environment(t *testing.T) {
	t.Setenv(config.EnvCSVPath, "/tmp/env.csv")
	t.Setenv(config.EnvDBPath, "/tmp/env.sqlite")

	c, err := parseArgs(t)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.csv", c.Output.CSVPath)
	assert.Equal(t, "/tmp/env.sqlite", c.Output.DBPath)
}

func TestNewConfigFromArgs_PositionalDelay(t *testing.T) {
	tests := []struct {
		arg  string
		want time.Duration
	}{
		{"0.1", 100 * time.Millisecond},
		{"3", 3 * time.Second},
		{"0", 0},
		{"250ms", 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			c, err := parseArgs(t, tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Delay.Duration())
		})
	}
}

func TestNewConfigFromArgs_YAMLAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generator.yaml")
	doc := `settings:
  logLevel: debug
pattern:
  azimuthMin: -40
  azimuthMax: 40
  azimuthStep: 5
  elevationMin: -20
  elevationMax: 20
  elevationStep: 5
amplitude:
  seed: 7
  baseline: -60
  slope: 0.5
  sigma: 1
delay: 1s
limit: 100
output:
  csv: from-file.csv
  db: from-file.sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := parseArgs(t, "-c", path, "-o", "from-flag.csv", "-seed", "11", "0.5")
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Settings.LogLevel)
	assert.Equal(t, 5.0, c.Pattern.AzimuthStep)
	assert.Equal(t, -60.0, c.Amplitude.Baseline)
	assert.Equal(t, int64(100), c.Limit)
	assert.Equal(t, "from-file.sqlite", c.Output.DBPath, "unset flags keep the file value")
	assert.Equal(t, "from-flag.csv", c.Output.CSVPath, "explicit flags override the file")
	assert.Equal(t, uint64(11), c.Amplitude.Seed)
	assert.Equal(t, 500*time.Millisecond, c.Delay.Duration(), "positional delay overrides the file")
}

func TestNewConfigFromArgs_Invalid(t *testing.T) {
	badPattern := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(badPattern, []byte("pattern:\n  azimuthStep: 0\n"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"negative delay", []string{"--", "-1"}},
		{"not a number", []string{"soon"}},
		{"infinite delay", []string{"Inf"}},
		{"too many arguments", []string{"1", "2"}},
		{"negative limit", []string{"-n", "-5"}},
		{"empty output", []string{"-o", ""}},
		{"unknown flag", []string{"-frequency", "100"}},
		{"missing config file", []string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}},
		{"invalid pattern", []string{"-c", badPattern}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
