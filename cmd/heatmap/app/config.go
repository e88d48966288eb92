package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/roman-kulish/grid-track/internal/chart"
	"github.com/roman-kulish/grid-track/internal/config"
	"github.com/roman-kulish/grid-track/internal/render"
)

type Config struct {
	CSVPath       string
	DBPath        string
	SessionID     int64
	OutputFile    string
	Format        render.ImageFormat
	Theme         chart.ColorTheme
	Bins          int
	CellSize      int
	Clip          float64 // Quantile clipped from each end of the color scale
	MinCut        *int
	MaxCut        *int
	MinTimestamp  *time.Time
	MaxTimestamp  *time.Time
	Verbose       bool
	NoAnnotations bool
	ListSessions  bool
}

func NewConfig() *Config {
	return &Config{
		CSVPath:  config.EnvOr(config.EnvCSVPath, ""),
		DBPath:   config.EnvOr(config.EnvDBPath, ""),
		Format:   render.ImagePNG,
		Theme:    chart.DefaultColorTheme,
		Bins:     chart.DefaultXBins,
		CellSize: render.DefaultCellSize,
	}
}

func NewConfigFromArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, theme, minTimestamp, maxTimestamp string
	var minCut, maxCut int
	fs.StringVar(&c.CSVPath, "csv", c.CSVPath, "Path to the CSV file written by the generator")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "Path to the database file, takes precedence over -csv")
	fs.Int64Var(&c.SessionID, "s", 0, "Session ID, 0 selects the latest session")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(render.ImagePNG), "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", string(c.Theme), fmt.Sprintf("Color theme %v", chart.Themes))
	fs.IntVar(&c.Bins, "bins", c.Bins, "Number of bins per axis")
	fs.IntVar(&c.CellSize, "cell", c.CellSize, "Side of one heatmap cell in pixels")
	fs.Float64Var(&c.Clip, "clip", 0, "Clip this quantile off both ends of the color scale, e.g. 0.05")
	fs.IntVar(&minCut, "min-cut", 0, "Skip cuts with a lower index")
	fs.IntVar(&maxCut, "max-cut", 0, "Skip cuts with a higher index")
	fs.StringVar(&minTimestamp, "start", "", "Skip samples taken before this time (RFC 3339)")
	fs.StringVar(&maxTimestamp, "end", "", "Skip samples taken after this time (RFC 3339)")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as scales and the legend")
	fs.BoolVar(&c.ListSessions, "list-sessions", false, "List the sessions stored in the database and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var visitErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-cut":
			c.MinCut = &minCut
		case "max-cut":
			c.MaxCut = &maxCut
		case "start":
			c.MinTimestamp, visitErr = parseTimestamp(f.Name, minTimestamp, visitErr)
		case "end":
			c.MaxTimestamp, visitErr = parseTimestamp(f.Name, maxTimestamp, visitErr)
		}
	})
	if visitErr != nil {
		return nil, visitErr
	}

	if c.ListSessions {
		if c.DBPath == "" {
			return nil, errors.New("db path is required to list sessions")
		}
		return c, nil
	}

	var err error
	if c.Format, err = render.ParseImageFormat(imageFormat); err != nil {
		return nil, err
	}
	if c.Theme, err = chart.ParseColorTheme(theme); err != nil {
		return nil, err
	}

	switch {
	case c.DBPath == "" && c.CSVPath == "":
		err = errors.New("csv path or db path is required")
	case c.SessionID < 0:
		err = fmt.Errorf("invalid session id: %d", c.SessionID)
	case c.OutputFile == "":
		err = errors.New("output file is required")
	case c.Bins <= 0:
		err = fmt.Errorf("number of bins must be positive, got %d", c.Bins)
	case c.CellSize <= 0:
		err = fmt.Errorf("cell size must be positive, got %d", c.CellSize)
	case c.Clip < 0 || c.Clip >= 0.5:
		err = fmt.Errorf("clip must be within [0, 0.5), got %g", c.Clip)
	case c.MinCut != nil && c.MaxCut != nil && *c.MinCut > *c.MaxCut:
		err = fmt.Errorf("min cut %d is greater than max cut %d", *c.MinCut, *c.MaxCut)
	case c.MinTimestamp != nil && c.MaxTimestamp != nil && c.MinTimestamp.After(*c.MaxTimestamp):
		err = errors.New("start time is after end time")
	}
	if err != nil {
		return nil, err
	}

	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}

func parseTimestamp(name, value string, prev error) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, errors.Join(prev, fmt.Errorf("invalid -%s timestamp '%s': %w", name, value, err))
	}
	t = t.UTC()
	return &t, prev
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
