// Package config holds the configuration plumbing shared by the commands:
// .env files, environment overrides and YAML documents.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding command defaults
const (
	EnvCSVPath = "GRIDTRACK_CSV"
	EnvDBPath  = "GRIDTRACK_DB"
	EnvAddr    = "GRIDTRACK_ADDR"

	DefaultEnvFile = ".env"
)

// LoadEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading env file '%s': %w", file, err)
		}
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if the
// variable is unset or blank.
func EnvOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// ApplyLogLevel sets level from the configured name. An empty name keeps the
// current level.
func (s Settings) ApplyLogLevel(level *slog.LevelVar) error {
	if s.LogLevel == "" {
		return nil
	}
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", s.LogLevel, err)
	}
	return nil
}

// LoadYAML decodes the YAML document at path into v. Unknown fields are
// rejected, an empty document leaves v untouched.
func LoadYAML(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding config file '%s': %w", path, err)
	}
	return nil
}
