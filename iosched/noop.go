package iosched

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Noop dispatches in pure arrival order regardless of direction.
// Neighbor lookups still stay within the request's own direction.
type Noop struct {
	fifo   *RequestQueue
	exited bool
}

// NewNoop returns an empty Noop elevator.
func NewNoop() *Noop {
	return &Noop{fifo: NewRequestQueue()}
}

func (n *Noop) Name() string { return ElevatorNoop }

func (n *Noop) Admit(r *Request) {
	if n.exited {
		panic("Admit: elevator has exited")
	}
	n.fifo.Enqueue(r)
}

func (n *Noop) Dispatch() *Request {
	if n.exited {
		panic("Dispatch: elevator has exited")
	}
	return n.fifo.Pop()
}

func (n *Noop) Idle() bool { return n.fifo.Len() == 0 }

func (n *Noop) Predecessor(r *Request) *Request {
	for p := n.fifo.Before(r); p != nil; p = n.fifo.Before(p) {
		if p.Dir == r.Dir {
			return p
		}
	}
	return nil
}

func (n *Noop) Successor(r *Request) *Request {
	for s := n.fifo.After(r); s != nil; s = n.fifo.After(s) {
		if s.Dir == r.Dir {
			return s
		}
	}
	return nil
}

func (n *Noop) MergedRequests(r, next *Request) {
	if !n.fifo.Contains(r) {
		panic(fmt.Sprintf("MergedRequests: request %s is not queued", r.ID))
	}
	if next == nil || next.Dir != r.Dir {
		panic("MergedRequests: next must be queued in the same direction as r")
	}
	n.fifo.Remove(next)
}

func (n *Noop) Exit() {
	if !n.Idle() {
		panic(fmt.Sprintf("noop: exit with %d pending requests", n.fifo.Len()))
	}
	n.exited = true
	logrus.Info("noop: exit")
}
