package iosched

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocked_ConcurrentAdmitAndDispatch_NoLossNoDuplication(t *testing.T) {
	// GIVEN a locked rwfifo driven by several producers and consumers
	l := NewLocked(NewRWFIFO(DefaultConfig()))
	const producers, perProducer = 4, 250

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		seen    = make(map[string]int)
		done    = make(chan struct{})
		consume sync.WaitGroup
	)
	record := func(r *Request) {
		mu.Lock()
		seen[r.ID]++
		mu.Unlock()
	}

	for c := 0; c < 3; c++ {
		consume.Add(1)
		go func() {
			defer consume.Done()
			for {
				if r := l.Dispatch(); r != nil {
					record(r)
					continue
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	// WHEN producers admit concurrently
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				dir := Read
				if i%3 == 0 {
					dir = Write
				}
				l.Admit(NewRequest(fmt.Sprintf("p%d-%d", p, i), dir, uint64(i), 8, 0))
			}
		}(p)
	}
	wg.Wait()
	close(done)
	consume.Wait()
	for r := l.Dispatch(); r != nil; r = l.Dispatch() {
		record(r)
	}

	// THEN every request was dispatched exactly once and teardown succeeds
	require.Len(t, seen, producers*perProducer)
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
	assert.True(t, l.Idle())
	assert.NotPanics(t, l.Exit)
}

func TestLocked_ForwardsCapabilities(t *testing.T) {
	l := NewLocked(NewRWFIFO(DefaultConfig()))
	assert.Equal(t, ElevatorRWFIFO, l.Name())

	r1, r2 := rd("R1"), rd("R2")
	l.Admit(r1)
	l.Admit(r2)
	assert.Same(t, r2, l.Successor(r1))
	assert.Same(t, r1, l.Predecessor(r2))

	c, ok := l.Counters()
	require.True(t, ok)
	assert.Equal(t, 2, c.ReadsPending)

	require.NoError(t, l.StoreAttr(AttrMaxWrites, "4"))
	v, err := l.ShowAttr(AttrMaxWrites)
	require.NoError(t, err)
	assert.Equal(t, "4", v)
	assert.Contains(t, l.AttrNames(), AttrMaxWrites)

	l.MergedRequests(r1, r2)
	assert.Same(t, r1, l.Dispatch())
	assert.True(t, l.Idle())
}

func TestLocked_Do_RunsUnderLock(t *testing.T) {
	l := NewLocked(NewRWFIFO(DefaultConfig()))
	var name string
	l.Do(func(e Elevator) {
		e.Admit(wr("W1"))
		name = e.Name()
	})
	assert.Equal(t, ElevatorRWFIFO, name)
	assert.False(t, l.Idle())
}

func TestLocked_Noop_HasNoTunablesOrCounters(t *testing.T) {
	l := NewLocked(NewNoop())
	_, ok := l.Counters()
	assert.False(t, ok)
	assert.Nil(t, l.AttrNames())
	_, err := l.ShowAttr(AttrMaxReads)
	assert.ErrorIs(t, err, ErrUnknownAttribute)
	assert.ErrorIs(t, l.StoreAttr(AttrMaxReads, "2"), ErrUnknownAttribute)
}

func TestLocked_PanicReleasesLock(t *testing.T) {
	// GIVEN a locked elevator holding a request
	l := NewLocked(NewRWFIFO(DefaultConfig()))
	l.Admit(rd("R1"))

	// WHEN teardown panics
	assert.Panics(t, l.Exit)

	// THEN the lock was released and the elevator keeps working
	assert.Equal(t, "R1", l.Dispatch().ID)
}

func TestNewLocked_Nil_Panics(t *testing.T) {
	assert.Panics(t, func() { NewLocked(nil) })
}
