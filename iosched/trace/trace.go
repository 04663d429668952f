package trace

import "github.com/google/uuid"

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDispatch captures every dispatch and merge decision.
	TraceLevelDispatch TraceLevel = "dispatch"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:     true,
	TraceLevelDispatch: true,
	"":                 true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// DispatchTrace collects decision records during one host run.
type DispatchTrace struct {
	RunID      string           `json:"run_id"`
	Elevator   string           `json:"elevator"`
	Level      TraceLevel       `json:"level"`
	Dispatches []DispatchRecord `json:"dispatches"`
	Merges     []MergeRecord    `json:"merges"`
}

// NewDispatchTrace creates a DispatchTrace with a fresh run ID.
func NewDispatchTrace(elevator string, level TraceLevel) *DispatchTrace {
	return &DispatchTrace{
		RunID:      uuid.NewString(),
		Elevator:   elevator,
		Level:      level,
		Dispatches: make([]DispatchRecord, 0),
		Merges:     make([]MergeRecord, 0),
	}
}

// Enabled reports whether records should be collected. Safe on nil.
func (dt *DispatchTrace) Enabled() bool {
	return dt != nil && dt.Level == TraceLevelDispatch
}

// RecordDispatch appends a dispatch record, numbering it in order.
func (dt *DispatchTrace) RecordDispatch(record DispatchRecord) {
	record.Seq = len(dt.Dispatches)
	dt.Dispatches = append(dt.Dispatches, record)
}

// RecordMerge appends a merge record.
func (dt *DispatchTrace) RecordMerge(record MergeRecord) {
	dt.Merges = append(dt.Merges, record)
}
