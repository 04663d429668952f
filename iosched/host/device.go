package host

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SA0000000/rwfifo-io/iosched"
)

// DeviceConfig models the consumer side: a single-spindle device behind a
// driver queue of Depth slots. Times are in ticks (µs).
type DeviceConfig struct {
	Depth           int    `yaml:"depth"`             // requests the driver accepts at once (≥1)
	BaseLatency     int64  `yaml:"base_latency"`      // fixed cost per request
	PerSector       int64  `yaml:"per_sector"`        // transfer cost per sector
	SwitchPenalty   int64  `yaml:"switch_penalty"`    // extra cost when direction changes
	SeekPenalty     int64  `yaml:"seek_penalty"`      // extra cost when not contiguous with the previous request
	MaxMergeSectors uint64 `yaml:"max_merge_sectors"` // largest request merging may build; 0 disables merging
}

// DefaultDeviceConfig returns a rotational-disk-like device.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Depth:           1,
		BaseLatency:     100,
		PerSector:       2,
		SwitchPenalty:   500,
		SeekPenalty:     2000,
		MaxMergeSectors: 256,
	}
}

// Validate checks parameter ranges.
func (c DeviceConfig) Validate() error {
	if c.Depth < 1 {
		return fmt.Errorf("depth must be >= 1, got %d", c.Depth)
	}
	if c.BaseLatency < 0 || c.PerSector < 0 || c.SwitchPenalty < 0 || c.SeekPenalty < 0 {
		return fmt.Errorf("latencies must be non-negative (base=%d per_sector=%d switch=%d seek=%d)",
			c.BaseLatency, c.PerSector, c.SwitchPenalty, c.SeekPenalty)
	}
	return nil
}

// LoadDeviceConfig reads a YAML device file on top of the defaults.
func LoadDeviceConfig(path string) (DeviceConfig, error) {
	return LoadDeviceConfigOnto(DefaultDeviceConfig(), path)
}

// LoadDeviceConfigOnto layers the YAML file at path over base.
func LoadDeviceConfigOnto(base DeviceConfig, path string) (DeviceConfig, error) {
	cfg := base
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading device config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing device config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid device config %s: %w", path, err)
	}
	return cfg, nil
}

// device tracks head position and the time the device frees up.
type device struct {
	cfg       DeviceConfig
	busyUntil int64
	hasLast   bool
	lastDir   iosched.Direction
	lastEnd   uint64
}

// serviceTime is the cost of r given the previous request serviced.
func (d *device) serviceTime(r *iosched.Request) int64 {
	cost := d.cfg.BaseLatency + d.cfg.PerSector*int64(r.Sectors)
	if d.hasLast {
		if r.Dir != d.lastDir {
			cost += d.cfg.SwitchPenalty
		}
		if r.Sector != d.lastEnd {
			cost += d.cfg.SeekPenalty
		}
	}
	return cost
}

// submit queues r behind whatever the device is doing and returns its completion time.
func (d *device) submit(now int64, r *iosched.Request) int64 {
	start := max(now, d.busyUntil)
	d.busyUntil = start + d.serviceTime(r)
	d.hasLast = true
	d.lastDir = r.Dir
	d.lastEnd = r.End()
	return d.busyUntil
}
