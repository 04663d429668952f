package iosched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewElevator_ByName(t *testing.T) {
	assert.IsType(t, &RWFIFO{}, NewElevator("", DefaultConfig()))
	assert.IsType(t, &RWFIFO{}, NewElevator("rwfifo", DefaultConfig()))
	assert.IsType(t, &Noop{}, NewElevator("noop", DefaultConfig()))
}

func TestNewElevator_Unknown_Panics(t *testing.T) {
	assert.False(t, IsValidElevator("cfq"))
	assert.PanicsWithValue(t, `unknown elevator "cfq"`, func() { NewElevator("cfq", DefaultConfig()) })
}

func TestNewElevator_PassesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxReads = 7
	e := NewElevator(ElevatorRWFIFO, cfg).(*RWFIFO)
	assert.Equal(t, 7, e.Config().MaxReads)
}

func TestCountersOf(t *testing.T) {
	e := NewRWFIFO(DefaultConfig())
	e.Admit(wr("W1"))

	c, ok := CountersOf(e)
	assert.True(t, ok)
	assert.Equal(t, 1, c.WritesPending)

	c, ok = CountersOf(NewLocked(e))
	assert.True(t, ok)
	assert.Equal(t, 1, c.WritesPending)

	_, ok = CountersOf(NewNoop())
	assert.False(t, ok)
}
