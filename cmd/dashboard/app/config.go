package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/roman-kulish/grid-track/internal/chart"
	"github.com/roman-kulish/grid-track/internal/config"
	"github.com/roman-kulish/grid-track/internal/dashboard"
)

const (
	defaultCSVPath = "data/fake_data.csv"
	defaultAddr    = "127.0.0.1:8050"
)

type Config struct {
	CSVPath    string
	DBPath     string
	SessionID  int64
	Addr       string
	Interval   time.Duration
	Bins       int
	Theme      chart.ColorTheme
	AssetsHost string
	Verbose    bool
}

func NewConfig() *Config {
	return &Config{
		CSVPath:  config.EnvOr(config.EnvCSVPath, defaultCSVPath),
		DBPath:   config.EnvOr(config.EnvDBPath, ""),
		Addr:     config.EnvOr(config.EnvAddr, defaultAddr),
		Interval: dashboard.DefaultInterval,
		Bins:     chart.DefaultXBins,
		Theme:    chart.DefaultColorTheme,
	}
}

// NewConfigFromArgs parses args on top of the defaults and the environment
func NewConfigFromArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var theme string
	fs.StringVar(&c.CSVPath, "csv", c.CSVPath, "Path to the CSV file written by the generator")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "Read from this SQLite database instead of the CSV file")
	fs.Int64Var(&c.SessionID, "s", 0, "Session ID to read from the database, 0 follows the latest session")
	fs.StringVar(&c.Addr, "addr", c.Addr, "Address to serve the dashboard on")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "Refresh interval of the charts")
	fs.IntVar(&c.Bins, "bins", c.Bins, "Number of heatmap bins per axis")
	fs.StringVar(&theme, "theme", string(c.Theme), fmt.Sprintf("Heatmap color theme %v", chart.Themes))
	fs.StringVar(&c.AssetsHost, "assets-host", "", "Serve the ECharts scripts from this host")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	var err error
	if c.Theme, err = chart.ParseColorTheme(theme); err != nil {
		return nil, err
	}

	switch {
	case c.DBPath == "" && c.CSVPath == "":
		err = errors.New("csv path or db path is required")
	case c.SessionID < 0:
		err = fmt.Errorf("invalid session id: %d", c.SessionID)
	case c.Addr == "":
		err = errors.New("listen address is required")
	case c.Interval <= 0:
		err = fmt.Errorf("refresh interval must be positive, got %s", c.Interval)
	case c.Bins <= 0:
		err = fmt.Errorf("number of bins must be positive, got %d", c.Bins)
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

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
