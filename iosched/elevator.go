package iosched

import "fmt"

// Elevator names accepted by NewElevator.
const (
	ElevatorRWFIFO = "rwfifo"
	ElevatorNoop   = "noop"
)

// Elevator is the capability set a host block layer drives.
// Implementations are not required to be safe for concurrent use.
type Elevator interface {
	Name() string
	// Admit queues an arriving request. Never fails; nil or duplicate requests panic.
	Admit(r *Request)
	// Dispatch removes the next request to hand to the device, or returns nil when idle.
	Dispatch() *Request
	// Idle reports whether no request is pending.
	Idle() bool
	// Predecessor and Successor return queue neighbors of a queued request, or nil.
	Predecessor(r *Request) *Request
	Successor(r *Request) *Request
	// MergedRequests removes next after the host fused it into r.
	MergedRequests(r, next *Request)
	// Exit tears the elevator down and panics if requests are still pending.
	Exit()
}

// CounterReporter is implemented by elevators that expose dispatch counters.
type CounterReporter interface {
	Counters() Counters
}

// ValidElevators is the set of recognized elevator names.
var ValidElevators = map[string]bool{"": true, ElevatorRWFIFO: true, ElevatorNoop: true}

// IsValidElevator returns true if name is a recognized elevator.
func IsValidElevator(name string) bool {
	return ValidElevators[name]
}

// NewElevator creates an Elevator by name.
// Empty string defaults to rwfifo (for CLI flag default compatibility).
// Panics on unrecognized names or an invalid cfg.
func NewElevator(name string, cfg Config) Elevator {
	if !IsValidElevator(name) {
		panic(fmt.Sprintf("unknown elevator %q", name))
	}
	switch name {
	case "", ElevatorRWFIFO:
		return NewRWFIFO(cfg)
	case ElevatorNoop:
		return NewNoop()
	default:
		panic(fmt.Sprintf("unhandled elevator %q", name))
	}
}

// CountersOf returns e's dispatch counters if it reports them, looking through Locked.
func CountersOf(e Elevator) (Counters, bool) {
	switch v := e.(type) {
	case *Locked:
		return v.Counters()
	case CounterReporter:
		return v.Counters(), true
	default:
		return Counters{}, false
	}
}
