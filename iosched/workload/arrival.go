package workload

import (
	"math"
	"math/rand"
)

// ArrivalSampler generates inter-arrival times for a stream.
type ArrivalSampler interface {
	// SampleIAT returns the next inter-arrival time in microseconds.
	// Always returns a positive value (>= 1).
	SampleIAT(rng *rand.Rand) int64
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct {
	rateMicros float64 // requests per microsecond
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) int64 {
	iat := int64(rng.ExpFloat64() / s.rateMicros)
	if iat < 1 {
		return 1
	}
	return iat
}

// ConstantSampler spaces arrivals evenly (CV=0).
type ConstantSampler struct {
	iat int64
}

func (s *ConstantSampler) SampleIAT(_ *rand.Rand) int64 {
	return s.iat
}

// NewArrivalSampler creates a sampler for the given process and rate (requests/second).
// Empty process defaults to poisson.
func NewArrivalSampler(spec ArrivalSpec, rate float64) ArrivalSampler {
	switch spec.Process {
	case "constant":
		iat := int64(math.Round(1e6 / rate))
		if iat < 1 {
			iat = 1
		}
		return &ConstantSampler{iat: iat}
	default:
		return &PoissonSampler{rateMicros: rate / 1e6}
	}
}
