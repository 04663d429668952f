package workload

import "fmt"

// ComposeSpecs merges the streams of several specs into one. The seed comes
// from the first spec, request counts add up and the longest horizon wins.
// Stream IDs must stay unique across the inputs.
func ComposeSpecs(specs []*Spec) (*Spec, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one spec file required")
	}

	merged := &Spec{
		Version: "1",
		Seed:    specs[0].Seed,
	}
	for _, s := range specs {
		merged.NumRequests += s.NumRequests
		merged.Horizon = max(merged.Horizon, s.Horizon)
		merged.Streams = append(merged.Streams, s.Streams...)
	}
	// An input bounded only by horizon makes the merged count meaningless.
	for _, s := range specs {
		if s.NumRequests == 0 {
			merged.NumRequests = 0
			break
		}
	}
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("composed spec: %w", err)
	}
	return merged, nil
}
