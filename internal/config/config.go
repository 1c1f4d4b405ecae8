// Package config loads search defaults from an optional HCL or YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/ingest"
)

// ErrUnsupportedFormat is returned for config files that are neither HCL
// nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config holds the tunables a search picks up before flags are applied.
type Config struct {
	Algorithm api.Algorithm
	FindAll   bool
	MaxDepth  int
	MaxFanout int
	Delay     time.Duration
	// Record is a history database path; empty disables recording.
	Record    string
	LogLevel  string
	LogFormat string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Algorithm: api.BFS,
		MaxDepth:  ingest.DefaultMaxDepth,
		MaxFanout: ingest.DefaultMaxFanout,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// file mirrors Config with optional fields so that only keys present in the
// file override defaults. The same struct decodes HCL and YAML.
type file struct {
	Algorithm *string `hcl:"algorithm,optional" yaml:"algorithm"`
	FindAll   *bool   `hcl:"find_all,optional" yaml:"find_all"`
	MaxDepth  *int    `hcl:"max_depth,optional" yaml:"max_depth"`
	MaxFanout *int    `hcl:"max_fanout,optional" yaml:"max_fanout"`
	Delay     *string `hcl:"delay,optional" yaml:"delay"`
	Record    *string `hcl:"record,optional" yaml:"record"`
	LogLevel  *string `hcl:"log_level,optional" yaml:"log_level"`
	LogFormat *string `hcl:"log_format,optional" yaml:"log_format"`
}

// Load reads path and returns Default() overlaid with its values. The format
// is chosen by extension: .hcl, .yaml or .yml.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(filepath.Base(path), data)
}

// Parse decodes data, naming the format by filename's extension.
func Parse(filename string, data []byte) (Config, error) {
	var f file
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		if err := hclsimple.Decode(filename, data, nil, &f); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", filename, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", filename, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	cfg := Default()
	if err := f.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, cfg.Validate()
}

func (f *file) apply(cfg *Config) error {
	if f.Algorithm != nil {
		algo, err := api.ParseAlgorithm(*f.Algorithm)
		if err != nil {
			return err
		}
		cfg.Algorithm = algo
	}
	if f.FindAll != nil {
		cfg.FindAll = *f.FindAll
	}
	if f.MaxDepth != nil {
		cfg.MaxDepth = *f.MaxDepth
	}
	if f.MaxFanout != nil {
		cfg.MaxFanout = *f.MaxFanout
	}
	if f.Delay != nil {
		d, err := time.ParseDuration(*f.Delay)
		if err != nil {
			return fmt.Errorf("delay: %w", err)
		}
		cfg.Delay = d
	}
	if f.Record != nil {
		cfg.Record = *f.Record
	}
	if f.LogLevel != nil {
		cfg.LogLevel = *f.LogLevel
	}
	if f.LogFormat != nil {
		cfg.LogFormat = *f.LogFormat
	}
	return nil
}

// Validate rejects values no search can run with.
func (c Config) Validate() error {
	if _, err := api.ParseAlgorithm(string(c.Algorithm)); err != nil {
		return err
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.MaxFanout < 1 {
		return fmt.Errorf("max_fanout must be at least 1, got %d", c.MaxFanout)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %s", c.Delay)
	}
	return nil
}

// Request builds a search request for root and pattern from c.
func (c Config) Request(root, pattern string) api.Request {
	return api.Request{
		RootPath:  root,
		Pattern:   pattern,
		FindAll:   c.FindAll,
		Algorithm: c.Algorithm,
		MaxDepth:  c.MaxDepth,
		MaxFanout: c.MaxFanout,
		Delay:     c.Delay,
	}
}
