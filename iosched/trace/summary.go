package trace

// TraceSummary aggregates statistics from a DispatchTrace.
type TraceSummary struct {
	TotalDispatches   int            `json:"total_dispatches"`
	ByDirection       map[string]int `json:"by_direction"`
	DirectionSwitches int            `json:"direction_switches"`
	LongestRun        map[string]int `json:"longest_run"`
	MergesByKind      map[string]int `json:"merges_by_kind"`

	// Longest run of reads dispatched while at least one write was waiting.
	LongestReadRunWritesWaiting int `json:"longest_read_run_writes_waiting"`
	// Longest run of writes dispatched while at least one read was waiting.
	LongestWriteRunReadsWaiting int `json:"longest_write_run_reads_waiting"`
}

// Summarize computes aggregate statistics from a DispatchTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(dt *DispatchTrace) *TraceSummary {
	summary := &TraceSummary{
		ByDirection:  make(map[string]int),
		LongestRun:   make(map[string]int),
		MergesByKind: make(map[string]int),
	}
	if dt == nil {
		return summary
	}

	summary.TotalDispatches = len(dt.Dispatches)
	prev := ""
	run := 0
	starvedRun := 0
	for _, d := range dt.Dispatches {
		summary.ByDirection[d.Direction]++
		if d.Direction == prev {
			run++
		} else {
			if prev != "" {
				summary.DirectionSwitches++
			}
			run = 1
			starvedRun = 0
		}
		if run > summary.LongestRun[d.Direction] {
			summary.LongestRun[d.Direction] = run
		}

		waiting := (d.Direction == "read" && d.WritesPending > 0) || (d.Direction == "write" && d.ReadsPending > 0)
		if waiting {
			starvedRun++
		} else {
			starvedRun = 0
		}
		if d.Direction == "read" && starvedRun > summary.LongestReadRunWritesWaiting {
			summary.LongestReadRunWritesWaiting = starvedRun
		}
		if d.Direction == "write" && starvedRun > summary.LongestWriteRunReadsWaiting {
			summary.LongestWriteRunReadsWaiting = starvedRun
		}
		prev = d.Direction
	}

	for _, m := range dt.Merges {
		summary.MergesByKind[m.Kind]++
	}
	return summary
}
