package app

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/roman-kulish/grid-track/internal/config"
	"github.com/roman-kulish/grid-track/internal/sweep"
)

const defaultCSVPath = "./data/fake_data.csv"

// Config represents the generator configuration
type Config struct {
	Settings    config.Settings       `yaml:"settings"`
	Pattern     sweep.Pattern         `yaml:"pattern"`
	Amplitude   sweep.AmplitudeConfig `yaml:"amplitude"`
	Delay       config.Duration       `yaml:"delay"`
	Limit       int64                 `yaml:"limit"`
	Output      OutputConfig          `yaml:"output"`
	MetricsAddr string                `yaml:"metricsAddr"`
}

// OutputConfig represents where the samples are written to
type OutputConfig struct {
	CSVPath string `yaml:"csv"`
	DBPath  string `yaml:"db"` // Optional SQLite mirror
}

// sessionConfig is stored alongside a SQLite session
type sessionConfig struct {
	Pattern   sweep.Pattern         `json:"pattern"`
	Amplitude sweep.AmplitudeConfig `json:"amplitude"`
	Delay     config.Duration       `json:"delay"`
}

func NewConfig() *Config {
	return &Config{
		Pattern:   sweep.DefaultPattern(),
		Amplitude: sweep.DefaultAmplitudeConfig(),
		Delay:     config.Duration(sweep.DefaultDelay),
		Output: OutputConfig{
			CSVPath: config.EnvOr(config.EnvCSVPath, defaultCSVPath),
			DBPath:  config.EnvOr(config.EnvDBPath, ""),
		},
	}
}

// NewConfigFromArgs builds the configuration from defaults, the environment,
// an optional YAML file and finally the command line. Explicit flags win over
// the file, the positional delay wins over everything.
func NewConfigFromArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var (
		configPath, csvPath, dbPath, metricsAddr string
		seed                                     uint64
		limit                                    int64
	)
	fs.StringVar(&configPath, "c", "", "Path to an optional YAML configuration file")
	fs.StringVar(&csvPath, "o", c.Output.CSVPath, "Path to the output CSV file")
	fs.StringVar(&dbPath, "db", c.Output.DBPath, "Path to an optional SQLite database mirroring the CSV")
	fs.Uint64Var(&seed, "seed", c.Amplitude.Seed, "Seed of the amplitude noise")
	fs.Int64Var(&limit, "n", 0, "Stop after n samples, 0 runs until interrupted")
	fs.StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address, e.g. :2112")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [delay-seconds]\n", fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := config.LoadYAML(configPath, c); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			c.Output.CSVPath = csvPath
		case "db":
			c.Output.DBPath = dbPath
		case "seed":
			c.Amplitude.Seed = seed
		case "n":
			c.Limit = limit
		case "metrics-addr":
			c.MetricsAddr = metricsAddr
		}
	})

	if fs.NArg() > 1 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}
	if fs.NArg() == 1 {
		delay, err := parseDelay(fs.Arg(0))
		if err != nil {
			return nil, err
		}
		c.Delay = config.Duration(delay)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	var err error
	switch {
	case c.Output.CSVPath == "":
		err = errors.New("output CSV path is required")
	case c.Limit < 0:
		err = fmt.Errorf("sample limit must not be negative, got %d", c.Limit)
	default:
		err = c.Delay.Validate()
	}
	if err != nil {
		return err
	}

	if err = c.Pattern.Validate(); err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	if err = c.Amplitude.Validate(); err != nil {
		return fmt.Errorf("amplitude: %w", err)
	}
	return nil
}

// parseDelay accepts seconds ("2.5") or a Go duration ("250ms").
func parseDelay(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("invalid delay: %s", s)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid delay '%s': expected seconds or a duration", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("delay must not be negative: %s", s)
	}
	return d, nil
}

// NewConfigFromCLI loads .env files and parses the process command line
func NewConfigFromCLI() (*Config, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}

	c, err := NewConfigFromArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}
