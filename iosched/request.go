// Defines the Request struct that models a single block I/O request handed to an elevator.
// Carries the direction tag read by the dispatch policy and the sector range used by
// host-side merge decisions.

package iosched

import (
	"fmt"
	"strings"
)

// Direction is the data direction of a request.
type Direction int

const (
	Read Direction = iota
	Write
)

// numDirections sizes the per-direction arrays.
const numDirections = 2

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valid reports whether d is Read or Write.
func (d Direction) Valid() bool {
	return d == Read || d == Write
}

// ParseDirection converts "read"/"write" (case-insensitive, "r"/"w" accepted) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read", "r":
		return Read, nil
	case "write", "w":
		return Write, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// Request is an opaque unit of I/O work. Elevators only read Dir; the sector
// range is for the host's merge logic and the timestamps are host bookkeeping.
type Request struct {
	ID string // Unique identifier for the request

	Dir     Direction // Read or Write
	Sector  uint64    // First sector
	Sectors uint64    // Length in sectors

	ArrivalTime    int64 // Tick at which the host received the request
	DispatchTime   int64 // Tick at which the elevator handed it to the device
	CompletionTime int64 // Tick at which the device finished it
}

// NewRequest creates a Request with the required fields set.
func NewRequest(id string, dir Direction, sector, sectors uint64, arrivalTime int64) *Request {
	return &Request{
		ID:          id,
		Dir:         dir,
		Sector:      sector,
		Sectors:     sectors,
		ArrivalTime: arrivalTime,
	}
}

// End returns the first sector past the request.
func (r *Request) End() uint64 {
	return r.Sector + r.Sectors
}

func (r Request) String() string {
	return fmt.Sprintf("Request: (ID: %s, Dir: %s, Sector: %d+%d, ArrivalTime: %d)", r.ID, r.Dir, r.Sector, r.Sectors, r.ArrivalTime)
}
