package cmd

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/SA0000000/rwfifo-io/iosched"
	"github.com/SA0000000/rwfifo-io/iosched/host"
)

//go:embed presets.yaml
var presetsYAML []byte

// Preset bundles a device profile with scheduler tunables suited to it.
type Preset struct {
	Device    host.DeviceConfig `yaml:"device"`
	Scheduler iosched.Config    `yaml:"scheduler"`
}

// PresetsConfig represents the full presets.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type PresetsConfig struct {
	Version string            `yaml:"version"`
	Presets map[string]Preset `yaml:"presets"`
}

// parsePresets decodes and validates a presets document.
func parsePresets(data []byte) (PresetsConfig, error) {
	var cfg PresetsConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing presets: %w", err)
	}
	for name, p := range cfg.Presets {
		if err := p.Device.Validate(); err != nil {
			return cfg, fmt.Errorf("preset %s: device: %w", name, err)
		}
		if err := p.Scheduler.Validate(); err != nil {
			return cfg, fmt.Errorf("preset %s: scheduler: %w", name, err)
		}
	}
	return cfg, nil
}

// GetPreset looks up a built-in preset by name.
func GetPreset(name string) (Preset, error) {
	cfg, err := parsePresets(presetsYAML)
	if err != nil {
		return Preset{}, err
	}
	p, ok := cfg.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q; valid: %v", name, presetNames(cfg))
	}
	return p, nil
}

func presetNames(cfg PresetsConfig) []string {
	names := make([]string, 0, len(cfg.Presets))
	for name := range cfg.Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
