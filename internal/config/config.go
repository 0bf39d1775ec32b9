// Package config reads the optional scriptc.yaml project file.
//
// Every field has a command-line flag; a flag that is set explicitly wins
// over the file, and the file wins over the built-in default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scriptc/internal/dialect"
)

// FileName is the project file looked up in the working directory.
const FileName = "scriptc.yaml"

// Config holds project defaults.
type Config struct {
	// Dialect is used for programs that name no target.
	Dialect string `yaml:"dialect,omitempty"`

	// OutputDir receives compiled artifacts, one file per program.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Cache is the artifact cache database path. Empty disables caching.
	Cache string `yaml:"cache,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose,omitempty"`

	// Format is "text" or "json".
	Format string `yaml:"format,omitempty"`

	// Jobs bounds concurrent compiles; zero means the pipeline default.
	Jobs int `yaml:"jobs,omitempty"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{Format: "text"}
}

// Load reads path. A missing file is not an error when optional is true:
// the defaults are returned.
func Load(path string, optional bool) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && optional {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	// Relative paths in the file are relative to the file.
	base := filepath.Dir(path)
	if cfg.OutputDir != "" && !filepath.IsAbs(cfg.OutputDir) {
		cfg.OutputDir = filepath.Join(base, cfg.OutputDir)
	}
	if cfg.Cache != "" && !filepath.IsAbs(cfg.Cache) {
		cfg.Cache = filepath.Join(base, cfg.Cache)
	}
	return cfg, nil
}

// Parse decodes YAML config, rejecting unknown fields, and validates it.
// Unset fields keep their defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.Dialect != "" {
		if _, err := dialect.Lookup(c.Dialect); err != nil {
			return err
		}
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be non-negative, got %d", c.Jobs)
	}
	return nil
}
