package iosched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestQueue_FIFOOrder(t *testing.T) {
	// GIVEN a queue with requests [A, B, C]
	q := NewRequestQueue()
	a, b, c := rd("A"), rd("B"), rd("C")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	// WHEN all are popped
	var got []string
	for r := q.Pop(); r != nil; r = q.Pop() {
		got = append(got, r.ID)
	}

	// THEN they leave in arrival order and the queue is empty
	assert.Equal(t, []string{"A", "B", "C"}, got)
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.Contains(a))
}

func TestRequestQueue_Peek_DoesNotRemove(t *testing.T) {
	q := NewRequestQueue()
	assert.Nil(t, q.Peek())

	a := rd("A")
	q.Enqueue(a)
	assert.Same(t, a, q.Peek())
	assert.Equal(t, 1, q.Len())
}

func TestRequestQueue_Pop_Empty_ReturnsNil(t *testing.T) {
	q := NewRequestQueue()
	assert.Nil(t, q.Pop())
}

func TestRequestQueue_ZeroValue_Usable(t *testing.T) {
	// GIVEN a zero-value queue
	var q RequestQueue

	// WHEN a request is enqueued
	a := rd("A")
	q.Enqueue(a)

	// THEN it behaves like a constructed queue
	assert.True(t, q.Contains(a))
	assert.Same(t, a, q.Pop())
}

func TestRequestQueue_Enqueue_Nil_Panics(t *testing.T) {
	q := NewRequestQueue()
	assert.Panics(t, func() { q.Enqueue(nil) })
}

func TestRequestQueue_Enqueue_Duplicate_Panics(t *testing.T) {
	// GIVEN a queue already holding A
	q := NewRequestQueue()
	a := rd("A")
	q.Enqueue(a)

	// WHEN A is enqueued again
	// THEN the queue refuses it
	assert.Panics(t, func() { q.Enqueue(a) })
	assert.Equal(t, 1, q.Len())
}

func TestRequestQueue_Requeue_AfterPop_Allowed(t *testing.T) {
	q := NewRequestQueue()
	a := rd("A")
	q.Enqueue(a)
	q.Pop()
	assert.NotPanics(t, func() { q.Enqueue(a) })
}

func TestRequestQueue_BeforeAfter(t *testing.T) {
	// GIVEN [A, B, C]
	q := NewRequestQueue()
	a, b, c := rd("A"), rd("B"), rd("C")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	// THEN neighbors follow FIFO order and the ends have none
	assert.Nil(t, q.Before(a))
	assert.Same(t, a, q.Before(b))
	assert.Same(t, b, q.Before(c))
	assert.Same(t, b, q.After(a))
	assert.Same(t, c, q.After(b))
	assert.Nil(t, q.After(c))
	assert.Equal(t, 3, q.Len(), "lookups must not mutate")
}

func TestRequestQueue_BeforeAfter_NotQueued_Panics(t *testing.T) {
	q := NewRequestQueue()
	q.Enqueue(rd("A"))
	stranger := rd("X")
	assert.Panics(t, func() { q.Before(stranger) })
	assert.Panics(t, func() { q.After(stranger) })
	assert.Panics(t, func() { q.After(nil) })
}

func TestRequestQueue_Remove_Middle_PreservesOrder(t *testing.T) {
	// GIVEN [A, B, C]
	q := NewRequestQueue()
	a, b, c := rd("A"), rd("B"), rd("C")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	// WHEN B is removed
	q.Remove(b)

	// THEN [A, C] remain in order and B is no longer a member
	require.Equal(t, 2, q.Len())
	assert.Same(t, c, q.After(a))
	assert.False(t, q.Contains(b))
	assert.Equal(t, "[A C]", q.String())
	assert.Panics(t, func() { q.Remove(b) })
}

func TestRequestQueue_Items_ReturnsContents(t *testing.T) {
	q := NewRequestQueue()
	assert.Empty(t, q.Items())
	q.Enqueue(rd("A"))
	q.Enqueue(wr("B"))
	items := q.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].ID)
	assert.Equal(t, "B", items[1].ID)
}
