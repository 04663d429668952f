package host

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/SA0000000/rwfifo-io/iosched"
)

// DirectionStats aggregates one direction's requests.
type DirectionStats struct {
	Arrived    int     `json:"arrived"`    // requests generated
	Dispatched int     `json:"dispatched"` // device requests, after merging
	Completed  int     `json:"completed"`  // submitted requests completed, merged ones included
	Merged     int     `json:"merged"`     // requests absorbed into another
	Sectors    uint64  `json:"sectors"`    // sectors transferred
	MeanLat    float64 `json:"mean_latency"`
	P99Lat     float64 `json:"p99_latency"`
	MaxLat     int64   `json:"max_latency"`

	latencies []int64
}

func (s *DirectionStats) record(lat int64) {
	s.Completed++
	s.latencies = append(s.latencies, lat)
	s.MaxLat = max(s.MaxLat, lat)
}

func (s *DirectionStats) finalize() {
	if len(s.latencies) == 0 {
		return
	}
	sorted := slices.Clone(s.latencies)
	slices.Sort(sorted)
	s.MeanLat = CalculateMean(sorted)
	s.P99Lat = CalculatePercentile(sorted, 99)
}

// Metrics aggregates statistics about one host run.
type Metrics struct {
	RunID             string          `json:"run_id"`
	Elevator          string          `json:"elevator"`
	Read              DirectionStats  `json:"read"`
	Write             DirectionStats  `json:"write"`
	DirectionSwitches int             `json:"direction_switches"` // dispatches whose direction differs from the previous one
	MergesByKind      map[string]int  `json:"merges_by_kind"`
	Makespan          int64           `json:"makespan"` // clock at the last completion
	MaxQueued         int             `json:"max_queued"`
	Config            *iosched.Config `json:"config,omitempty"`
}

func newMetrics(runID, elevator string) *Metrics {
	return &Metrics{
		RunID:        runID,
		Elevator:     elevator,
		MergesByKind: make(map[string]int),
	}
}

func (m *Metrics) dir(d iosched.Direction) *DirectionStats {
	if d == iosched.Read {
		return &m.Read
	}
	return &m.Write
}

// Completed returns the number of submitted requests completed in both directions.
func (m *Metrics) Completed() int { return m.Read.Completed + m.Write.Completed }

// Print displays the run summary.
func (m *Metrics) Print() {
	fmt.Println("=== I/O Scheduler Metrics ===")
	fmt.Printf("Elevator             : %s\n", m.Elevator)
	fmt.Printf("Run ID               : %s\n", m.RunID)
	fmt.Printf("Completed Requests   : %d (reads %d, writes %d)\n", m.Completed(), m.Read.Completed, m.Write.Completed)
	fmt.Printf("Device Requests      : %d (reads %d, writes %d)\n", m.Read.Dispatched+m.Write.Dispatched, m.Read.Dispatched, m.Write.Dispatched)
	fmt.Printf("Merged Requests      : %d (back %d, front %d, fused %d)\n",
		m.Read.Merged+m.Write.Merged, m.MergesByKind[MergeBack], m.MergesByKind[MergeFront], m.MergesByKind[MergeRequests])
	fmt.Printf("Direction Switches   : %d\n", m.DirectionSwitches)
	fmt.Printf("Peak Queued          : %d\n", m.MaxQueued)
	fmt.Printf("Makespan             : %d ticks\n", m.Makespan)
	for _, d := range []iosched.Direction{iosched.Read, iosched.Write} {
		s := m.dir(d)
		if s.Completed == 0 {
			continue
		}
		fmt.Printf("%-5s latency        : mean %.2f ms, p99 %.2f ms, max %.2f ms\n",
			d, s.MeanLat, s.P99Lat, float64(s.MaxLat)/1000)
	}
}

// SaveResults writes the metrics as indented JSON.
func (m *Metrics) SaveResults(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results to %s: %w", path, err)
	}
	return nil
}

// CalculatePercentile returns the p-th percentile of sorted data, in milliseconds.
func CalculatePercentile(data []int64, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if lowerIdx == upperIdx || upperIdx >= n {
		return float64(data[min(lowerIdx, n-1)]) / 1000
	}
	lowerVal, upperVal := data[lowerIdx], data[upperIdx]
	return float64(lowerVal)/1000 + float64(upperVal-lowerVal)*(rank-float64(lowerIdx))/1000
}

// CalculateMean returns the mean of data, in milliseconds.
func CalculateMean(data []int64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += float64(v)
	}
	return sum / float64(len(data)) / 1000
}
