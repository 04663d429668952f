package trace

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidTraceLevel(t *testing.T) {
	assert.True(t, IsValidTraceLevel(""))
	assert.True(t, IsValidTraceLevel("none"))
	assert.True(t, IsValidTraceLevel("dispatch"))
	assert.False(t, IsValidTraceLevel("verbose"))
}

func TestNewDispatchTrace_AssignsRunID(t *testing.T) {
	a := NewDispatchTrace("rwfifo", TraceLevelDispatch)
	b := NewDispatchTrace("rwfifo", TraceLevelDispatch)

	_, err := uuid.Parse(a.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Empty(t, a.Dispatches)
	assert.Empty(t, a.Merges)
}

func TestDispatchTrace_Enabled(t *testing.T) {
	var nilTrace *DispatchTrace
	assert.False(t, nilTrace.Enabled())
	assert.False(t, NewDispatchTrace("rwfifo", TraceLevelNone).Enabled())
	assert.True(t, NewDispatchTrace("rwfifo", TraceLevelDispatch).Enabled())
}

func TestDispatchTrace_RecordDispatch_NumbersInOrder(t *testing.T) {
	dt := NewDispatchTrace("rwfifo", TraceLevelDispatch)
	dt.RecordDispatch(DispatchRecord{RequestID: "a", Seq: 99})
	dt.RecordDispatch(DispatchRecord{RequestID: "b"})

	require.Len(t, dt.Dispatches, 2)
	assert.Equal(t, 0, dt.Dispatches[0].Seq)
	assert.Equal(t, 1, dt.Dispatches[1].Seq)
}
