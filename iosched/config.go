package iosched

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default tunables for a freshly constructed RWFIFO.
const (
	DefaultMaxReads      = 3
	DefaultMaxWrites     = 2
	DefaultWritesStarved = 2  // max times reads can starve a write
	DefaultFifoBatch     = 16 // sequential requests treated as one
)

// Config groups the RWFIFO tunables. One Config is passed to each scheduler
// instance, so instances with different settings can coexist.
//
// WritesStarved and FifoBatch are carried and exposed as tunables but take no
// part in dispatch decisions.
type Config struct {
	MaxReads      int  `yaml:"max_reads"`      // consecutive reads allowed while writes wait (≥1)
	MaxWrites     int  `yaml:"max_writes"`     // writes in a contended run before reads are eligible again (≥1)
	WritesStarved int  `yaml:"writes_starved"` // ≥0
	FifoBatch     int  `yaml:"fifo_batch"`     // ≥1
	FrontMerges   bool `yaml:"front_merges"`   // host may front-merge into queued requests
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		MaxReads:      DefaultMaxReads,
		MaxWrites:     DefaultMaxWrites,
		WritesStarved: DefaultWritesStarved,
		FifoBatch:     DefaultFifoBatch,
		FrontMerges:   true,
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.MaxReads < 1 {
		return fmt.Errorf("max_reads must be >= 1, got %d", c.MaxReads)
	}
	if c.MaxWrites < 1 {
		return fmt.Errorf("max_writes must be >= 1, got %d", c.MaxWrites)
	}
	if c.WritesStarved < 0 {
		return fmt.Errorf("writes_starved must be non-negative, got %d", c.WritesStarved)
	}
	if c.FifoBatch < 1 {
		return fmt.Errorf("fifo_batch must be >= 1, got %d", c.FifoBatch)
	}
	return nil
}

// LoadConfig reads a YAML tunables file. Keys absent from the file keep their
// defaults; unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	return LoadConfigOnto(DefaultConfig(), path)
}

// LoadConfigOnto layers the YAML file at path over base. Keys the file
// omits keep base's values.
func LoadConfigOnto(base Config, path string) (Config, error) {
	cfg := base
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading scheduler config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing scheduler config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid scheduler config %s: %w", path, err)
	}
	return cfg, nil
}
