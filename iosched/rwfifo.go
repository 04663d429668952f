package iosched

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// RWFIFO is the read/write FIFO elevator. It keeps one FIFO per direction and
// interleaves them: up to MaxReads reads run while writes wait, then up to
// MaxWrites writes, then reads again. A direction with the other side empty
// is served without throttling.
//
// RWFIFO is not safe for concurrent use; wrap it in Locked when more than one
// goroutine drives it.
type RWFIFO struct {
	cfg  Config
	fifo [numDirections]*RequestQueue

	readCount  int // run-length counter for reads
	writeCount int // run-length counter for writes

	exited bool
}

// Counters is a snapshot of the dispatch state.
type Counters struct {
	ReadCount     int `json:"read_count"`
	WriteCount    int `json:"write_count"`
	ReadsPending  int `json:"reads_pending"`
	WritesPending int `json:"writes_pending"`
}

// NewRWFIFO creates an RWFIFO with empty queues and zeroed counters.
// Panics if cfg is invalid; callers validate user-supplied configs first.
func NewRWFIFO(cfg Config) *RWFIFO {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewRWFIFO: %v", err))
	}
	e := &RWFIFO{cfg: cfg}
	e.fifo[Read] = NewRequestQueue()
	e.fifo[Write] = NewRequestQueue()
	logrus.Infof("rwfifo: init max_reads=%d max_writes=%d writes_starved=%d fifo_batch=%d front_merges=%t",
		cfg.MaxReads, cfg.MaxWrites, cfg.WritesStarved, cfg.FifoBatch, cfg.FrontMerges)
	return e
}

func (e *RWFIFO) Name() string { return ElevatorRWFIFO }

// Config returns the current tunables.
func (e *RWFIFO) Config() Config { return e.cfg }

// Admit appends r to the tail of its direction's queue.
func (e *RWFIFO) Admit(r *Request) {
	e.mustLive("Admit")
	if r == nil {
		panic("Admit: request must not be nil")
	}
	if !r.Dir.Valid() {
		panic(fmt.Sprintf("Admit: request %s has invalid direction %d", r.ID, int(r.Dir)))
	}
	e.fifo[r.Dir].Enqueue(r)
}

// Idle reports whether both queues are empty.
func (e *RWFIFO) Idle() bool {
	return e.fifo[Read].Len() == 0 && e.fifo[Write].Len() == 0
}

// Dispatch removes and returns the next request, or nil if nothing is pending.
//
// The choice is derived only from the two run counters and which queues are
// non-empty at the time of the call.
func (e *RWFIFO) Dispatch() *Request {
	e.mustLive("Dispatch")
	reads := e.fifo[Read].Len() > 0
	writes := e.fifo[Write].Len() > 0
	if !reads && !writes {
		return nil
	}

	var dir Direction
	if reads {
		prev := e.readCount
		e.readCount++
		if prev < e.cfg.MaxReads || !writes {
			dir = Read
			e.writeCount = 0
		} else {
			dir = Write
			e.writeCount++
			if e.writeCount >= e.cfg.MaxWrites {
				e.readCount = 0
			}
		}
	} else {
		dir = Write
		e.writeCount++
		e.readCount = 0
	}

	rq := e.fifo[dir].Pop()
	logrus.Debugf("rwfifo: dispatch %s (%s) read_count=%d write_count=%d pending=%d/%d",
		rq.ID, dir, e.readCount, e.writeCount, e.fifo[Read].Len(), e.fifo[Write].Len())
	return rq
}

// Predecessor returns the request queued just ahead of r in r's direction, or nil.
// r must currently be queued.
func (e *RWFIFO) Predecessor(r *Request) *Request {
	return e.queueOf("Predecessor", r).Before(r)
}

// Successor returns the request queued just behind r in r's direction, or nil.
// r must currently be queued.
func (e *RWFIFO) Successor(r *Request) *Request {
	return e.queueOf("Successor", r).After(r)
}

// MergedRequests drops next from the queues after the host has folded it into r.
func (e *RWFIFO) MergedRequests(r, next *Request) {
	q := e.queueOf("MergedRequests", r)
	if next == nil || next.Dir != r.Dir {
		panic("MergedRequests: next must be queued in the same direction as r")
	}
	q.Remove(next)
}

// Counters returns a snapshot of the run counters and queue depths.
func (e *RWFIFO) Counters() Counters {
	return Counters{
		ReadCount:     e.readCount,
		WriteCount:    e.writeCount,
		ReadsPending:  e.fifo[Read].Len(),
		WritesPending: e.fifo[Write].Len(),
	}
}

// Exit tears the elevator down. Panics if any request is still queued.
func (e *RWFIFO) Exit() {
	if !e.Idle() {
		panic(fmt.Sprintf("rwfifo: exit with pending requests (reads=%d writes=%d)",
			e.fifo[Read].Len(), e.fifo[Write].Len()))
	}
	e.exited = true
	logrus.Info("rwfifo: exit")
}

func (e *RWFIFO) queueOf(op string, r *Request) *RequestQueue {
	if r == nil {
		panic(op + ": request must not be nil")
	}
	if !r.Dir.Valid() {
		panic(fmt.Sprintf("%s: request %s has invalid direction %d", op, r.ID, int(r.Dir)))
	}
	return e.fifo[r.Dir]
}

func (e *RWFIFO) mustLive(op string) {
	if e.exited {
		panic(op + ": elevator has exited")
	}
}
