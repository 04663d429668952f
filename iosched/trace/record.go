// Package trace provides dispatch-decision recording for elevator analysis.
// It has no dependency on iosched and stores pure data types only.
package trace

// DispatchRecord captures a single dispatch decision and the counter state
// the elevator was left in.
type DispatchRecord struct {
	Seq           int    `json:"seq"`
	Clock         int64  `json:"clock"`
	RequestID     string `json:"request_id"`
	Direction     string `json:"direction"` // "read" or "write"
	ReadCount     int    `json:"read_count"`
	WriteCount    int    `json:"write_count"`
	ReadsPending  int    `json:"reads_pending"`  // before the dispatch
	WritesPending int    `json:"writes_pending"` // before the dispatch
}

// MergeRecord captures a host-side merge.
type MergeRecord struct {
	Clock    int64  `json:"clock"`
	Into     string `json:"into"`
	Absorbed string `json:"absorbed"`
	Kind     string `json:"kind"` // "back", "front" or "requests"
}
