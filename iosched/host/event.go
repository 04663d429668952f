package host

import (
	"container/heap"

	"github.com/sirupsen/logrus"

	"github.com/SA0000000/rwfifo-io/iosched"
)

// EventKind orders simultaneous events: completions free driver slots before
// arrivals at the same tick are admitted.
type EventKind int

const (
	KindCompletion EventKind = iota
	KindArrival
)

// Event defines the interface for all host events.
type Event interface {
	Timestamp() int64
	Kind() EventKind
	Execute(*Host)
}

// ArrivalEvent represents a request reaching the block layer.
type ArrivalEvent struct {
	time    int64
	Request *iosched.Request
}

func (e *ArrivalEvent) Timestamp() int64 { return e.time }
func (e *ArrivalEvent) Kind() EventKind  { return KindArrival }

// Execute admits (or merges) the request and pulls dispatches if the driver has room.
func (e *ArrivalEvent) Execute(h *Host) {
	logrus.Debugf("<< Arrival: %s (%s %d+%d) at %d ticks", e.Request.ID, e.Request.Dir, e.Request.Sector, e.Request.Sectors, e.time)
	h.admit(e.Request)
	h.pump()
}

// CompletionEvent represents the device finishing a dispatched request.
type CompletionEvent struct {
	time    int64
	Request *iosched.Request
}

func (e *CompletionEvent) Timestamp() int64 { return e.time }
func (e *CompletionEvent) Kind() EventKind  { return KindCompletion }

// Execute retires the request and refills the driver queue.
func (e *CompletionEvent) Execute(h *Host) {
	logrus.Debugf("<< Completion: %s at %d ticks", e.Request.ID, e.time)
	h.complete(e.Request)
	h.pump()
}

type scheduledEvent struct {
	ev  Event
	seq uint64
}

// EventHeap implements a priority queue with deterministic ordering
// Ordering: timestamp → kind → insertion sequence
type EventHeap struct {
	events []scheduledEvent
	next   uint64
}

// NewEventHeap creates a new event heap
func NewEventHeap() *EventHeap {
	h := &EventHeap{events: make([]scheduledEvent, 0)}
	heap.Init(h)
	return h
}

func (h *EventHeap) Len() int { return len(h.events) }

func (h *EventHeap) Less(i, j int) bool {
	ei, ej := h.events[i], h.events[j]
	if ei.ev.Timestamp() != ej.ev.Timestamp() {
		return ei.ev.Timestamp() < ej.ev.Timestamp()
	}
	if ei.ev.Kind() != ej.ev.Kind() {
		return ei.ev.Kind() < ej.ev.Kind()
	}
	return ei.seq < ej.seq
}

func (h *EventHeap) Swap(i, j int) { h.events[i], h.events[j] = h.events[j], h.events[i] }

func (h *EventHeap) Push(x any) {
	h.events = append(h.events, x.(scheduledEvent))
}

func (h *EventHeap) Pop() any {
	old := h.events
	n := len(old)
	item := old[n-1]
	h.events = old[:n-1]
	return item
}

// Schedule adds ev, stamping it with the next sequence number.
func (h *EventHeap) Schedule(ev Event) {
	heap.Push(h, scheduledEvent{ev: ev, seq: h.next})
	h.next++
}

// PopNext removes the earliest event. Returns nil when empty.
func (h *EventHeap) PopNext() Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(scheduledEvent).ev
}
