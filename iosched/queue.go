// Implements the RequestQueue, which holds the pending requests of one direction.
// Requests are enqueued on admission and leave from the head on dispatch.

package iosched

import (
	"fmt"
	"strings"
)

// RequestQueue is a strict FIFO of pending requests. Insertion order is
// arrival order; nothing reorders it. A request may appear at most once.
type RequestQueue struct {
	queue   []*Request
	members map[*Request]struct{}
}

// NewRequestQueue returns an empty queue.
func NewRequestQueue() *RequestQueue {
	return &RequestQueue{members: make(map[*Request]struct{})}
}

// Enqueue adds a request to the back of the queue.
// Panics on nil or on a request that is already queued.
func (q *RequestQueue) Enqueue(r *Request) {
	if r == nil {
		panic("Enqueue: request must not be nil")
	}
	if q.members == nil {
		q.members = make(map[*Request]struct{})
	}
	if _, ok := q.members[r]; ok {
		panic(fmt.Sprintf("Enqueue: request %s is already queued", r.ID))
	}
	q.queue = append(q.queue, r)
	q.members[r] = struct{}{}
}

// Len returns the number of requests in the queue.
func (q *RequestQueue) Len() int {
	return len(q.queue)
}

// Peek returns the request at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (q *RequestQueue) Peek() *Request {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

// Pop removes and returns the request at the front of the queue.
// Returns nil if the queue is empty.
func (q *RequestQueue) Pop() *Request {
	if len(q.queue) == 0 {
		return nil
	}
	r := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	delete(q.members, r)
	return r
}

// Contains reports whether r is currently queued.
func (q *RequestQueue) Contains(r *Request) bool {
	_, ok := q.members[r]
	return ok
}

// Before returns the request queued immediately ahead of r, or nil if r is the head.
// Panics if r is not queued.
func (q *RequestQueue) Before(r *Request) *Request {
	i := q.mustIndex("Before", r)
	if i == 0 {
		return nil
	}
	return q.queue[i-1]
}

// After returns the request queued immediately behind r, or nil if r is the tail.
// Panics if r is not queued.
func (q *RequestQueue) After(r *Request) *Request {
	i := q.mustIndex("After", r)
	if i == len(q.queue)-1 {
		return nil
	}
	return q.queue[i+1]
}

// Remove unlinks r from anywhere in the queue, preserving the order of the rest.
// Panics if r is not queued.
func (q *RequestQueue) Remove(r *Request) {
	i := q.mustIndex("Remove", r)
	copy(q.queue[i:], q.queue[i+1:])
	q.queue[len(q.queue)-1] = nil
	q.queue = q.queue[:len(q.queue)-1]
	delete(q.members, r)
}

// Items returns the queue contents in FIFO order.
// The returned slice is the queue's internal storage; callers MUST NOT modify it.
func (q *RequestQueue) Items() []*Request {
	return q.queue
}

func (q *RequestQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, r := range q.queue {
		sb.WriteString(r.ID)
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

func (q *RequestQueue) mustIndex(op string, r *Request) int {
	if r == nil {
		panic(op + ": request must not be nil")
	}
	if !q.Contains(r) {
		panic(fmt.Sprintf("%s: request %s is not queued", op, r.ID))
	}
	for i, queued := range q.queue {
		if queued == r {
			return i
		}
	}
	panic(fmt.Sprintf("%s: request %s missing from queue storage", op, r.ID))
}
