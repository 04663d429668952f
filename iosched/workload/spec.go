package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is the top-level workload configuration.
// Loaded from YAML via LoadSpec(path).
type Spec struct {
	Version     string       `yaml:"version"`
	Seed        int64        `yaml:"seed"`
	Horizon     int64        `yaml:"horizon,omitempty"`      // ticks (µs); 0 = unlimited (use num_requests only)
	NumRequests int64        `yaml:"num_requests,omitempty"` // 0 = unlimited (use horizon only)
	Streams     []StreamSpec `yaml:"streams"`
}

// StreamSpec defines one independent source of I/O.
type StreamSpec struct {
	ID             string      `yaml:"id"`
	Direction      string      `yaml:"direction"`               // "read", "write" or "mixed"
	ReadFraction   float64     `yaml:"read_fraction,omitempty"` // mixed streams only
	Rate           float64     `yaml:"rate"`                    // requests per second
	Arrival        ArrivalSpec `yaml:"arrival"`
	Sequential     bool        `yaml:"sequential"`
	StartSector    uint64      `yaml:"start_sector"`
	SectorSpan     uint64      `yaml:"sector_span"` // region size; sequential streams wrap within it (0 = no wrap)
	RequestSectors uint64      `yaml:"request_sectors"`
}

// ArrivalSpec configures the inter-arrival time process.
type ArrivalSpec struct {
	Process string `yaml:"process"` // "poisson" (default) or "constant"
}

var validDirections = map[string]bool{"read": true, "write": true, "mixed": true}

var validArrivalProcesses = map[string]bool{"": true, "poisson": true, "constant": true}

// LoadSpec reads and parses a YAML workload spec with strict field checking.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *Spec) Validate() error {
	if len(s.Streams) == 0 {
		return fmt.Errorf("at least one stream required")
	}
	if s.Horizon < 0 {
		return fmt.Errorf("horizon must be non-negative, got %d", s.Horizon)
	}
	if s.NumRequests < 0 {
		return fmt.Errorf("num_requests must be non-negative, got %d", s.NumRequests)
	}
	if s.Horizon == 0 && s.NumRequests == 0 {
		return fmt.Errorf("one of horizon or num_requests must be set")
	}
	seen := make(map[string]bool, len(s.Streams))
	for i := range s.Streams {
		st := &s.Streams[i]
		if err := validateStream(st, i); err != nil {
			return err
		}
		if seen[st.ID] {
			return fmt.Errorf("stream[%d]: duplicate id %q", i, st.ID)
		}
		seen[st.ID] = true
	}
	return nil
}

func validateStream(st *StreamSpec, idx int) error {
	prefix := fmt.Sprintf("stream[%d]", idx)
	if st.ID == "" {
		return fmt.Errorf("%s: id required", prefix)
	}
	if !validDirections[st.Direction] {
		return fmt.Errorf("%s: unknown direction %q; valid: read, write, mixed", prefix, st.Direction)
	}
	if st.Direction == "mixed" && (st.ReadFraction < 0 || st.ReadFraction > 1) {
		return fmt.Errorf("%s: read_fraction must be in [0, 1], got %f", prefix, st.ReadFraction)
	}
	if st.Rate <= 0 || math.IsNaN(st.Rate) || math.IsInf(st.Rate, 0) {
		return fmt.Errorf("%s: rate must be a finite positive number, got %f", prefix, st.Rate)
	}
	if !validArrivalProcesses[st.Arrival.Process] {
		return fmt.Errorf("%s: unknown arrival process %q; valid: poisson, constant", prefix, st.Arrival.Process)
	}
	if st.RequestSectors == 0 {
		return fmt.Errorf("%s: request_sectors must be positive", prefix)
	}
	if !st.Sequential && st.SectorSpan < st.RequestSectors {
		return fmt.Errorf("%s: random streams need sector_span >= request_sectors, got %d < %d",
			prefix, st.SectorSpan, st.RequestSectors)
	}
	return nil
}

// DefaultSpec builds the two-stream workload used when no spec file is given:
// a sequential read stream and a random write stream splitting rate by readFraction.
func DefaultSpec(numRequests int64, rate, readFraction float64, seed int64) *Spec {
	spec := &Spec{Version: "1", Seed: seed, NumRequests: numRequests}
	if readFraction > 0 {
		spec.Streams = append(spec.Streams, StreamSpec{
			ID:             "reads",
			Direction:      "read",
			Rate:           rate * readFraction,
			Sequential:     true,
			StartSector:    0,
			SectorSpan:     1 << 20,
			RequestSectors: 8,
		})
	}
	if readFraction < 1 {
		spec.Streams = append(spec.Streams, StreamSpec{
			ID:             "writes",
			Direction:      "write",
			Rate:           rate * (1 - readFraction),
			StartSector:    1 << 21,
			SectorSpan:     1 << 20,
			RequestSectors: 8,
		})
	}
	return spec
}
