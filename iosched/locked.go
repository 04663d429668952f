package iosched

import (
	"fmt"
	"sync"
)

// Locked serializes every call on an Elevator behind one mutex. Use it when
// admissions and dispatches come from different goroutines.
type Locked struct {
	mu sync.Mutex
	e  Elevator
}

// NewLocked wraps e. Panics if e is nil.
func NewLocked(e Elevator) *Locked {
	if e == nil {
		panic("NewLocked: elevator must not be nil")
	}
	return &Locked{e: e}
}

func (l *Locked) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Name()
}

func (l *Locked) Admit(r *Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.e.Admit(r)
}

func (l *Locked) Dispatch() *Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Dispatch()
}

func (l *Locked) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Idle()
}

func (l *Locked) Predecessor(r *Request) *Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Predecessor(r)
}

func (l *Locked) Successor(r *Request) *Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.e.Successor(r)
}

func (l *Locked) MergedRequests(r, next *Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.e.MergedRequests(r, next)
}

func (l *Locked) Exit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.e.Exit()
}

// Do runs fn with the lock held, for compound operations that must not
// interleave with other callers (e.g. lookup-then-admit).
func (l *Locked) Do(fn func(e Elevator)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.e)
}

// Counters forwards to the wrapped elevator. ok is false if it has no counters.
func (l *Locked) Counters() (c Counters, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cr, ok := l.e.(CounterReporter)
	if !ok {
		return Counters{}, false
	}
	return cr.Counters(), true
}

// AttrNames returns the wrapped elevator's tunables, or nil.
func (l *Locked) AttrNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.e.(Tunable); ok {
		return t.AttrNames()
	}
	return nil
}

func (l *Locked) ShowAttr(name string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.e.(Tunable)
	if !ok {
		return "", fmt.Errorf("%w: %q (%s has no tunables)", ErrUnknownAttribute, name, l.e.Name())
	}
	return t.ShowAttr(name)
}

func (l *Locked) StoreAttr(name, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.e.(Tunable)
	if !ok {
		return fmt.Errorf("%w: %q (%s has no tunables)", ErrUnknownAttribute, name, l.e.Name())
	}
	return t.StoreAttr(name, value)
}
