package vl53l0x

import (
	"sync/atomic"

	"sumobot/core"
)

// Status is the progress of a measurement cycle
type Status uint32

const (
	NotStarted Status = iota
	Measuring
	Done
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Measuring:
		return "measuring"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// StatusSnapshot is a diagnostic copy of the cycle state
type StatusSnapshot struct {
	Aggregate Status
	Devices   [NumPositions]Status
	Cycles    uint32
}

// cycle is shared between the main loop and the interrupt handlers. Every
// read-modify-write happens with interrupts disabled.
type cycle struct {
	aggregate atomic.Uint32
	devices   [NumPositions]atomic.Uint32
	started   atomic.Uint32
	completed atomic.Uint32
}

// begin resets the per-device flags and marks the cycle Measuring. It
// returns false if a cycle is already in flight.
func (c *cycle) begin() (uint32, bool) {
	state := core.DisableInterrupts()
	if Status(c.aggregate.Load()) == Measuring {
		core.RestoreInterrupts(state)
		return 0, false
	}
	for i := range c.devices {
		c.devices[i].Store(uint32(Measuring))
	}
	c.aggregate.Store(uint32(Measuring))
	n := c.started.Add(1)
	core.RestoreInterrupts(state)
	return n, true
}

// abort drops a cycle whose start sequence failed
func (c *cycle) abort() {
	state := core.DisableInterrupts()
	c.aggregate.Store(uint32(NotStarted))
	core.RestoreInterrupts(state)
}

// markDone records a completion interrupt from pos. It reports whether this
// call completed the cycle. Firings outside a cycle and repeats are ignored.
func (c *cycle) markDone(pos Position) (accepted, completed bool) {
	state := core.DisableInterrupts()
	if Status(c.aggregate.Load()) != Measuring || Status(c.devices[pos].Load()) == Done {
		core.RestoreInterrupts(state)
		return false, false
	}
	c.devices[pos].Store(uint32(Done))
	completed = true
	for i := range c.devices {
		if Status(c.devices[i].Load()) != Done {
			completed = false
			break
		}
	}
	if completed {
		c.aggregate.Store(uint32(Done))
		c.completed.Add(1)
	}
	core.RestoreInterrupts(state)
	return true, completed
}

func (c *cycle) status() Status {
	return Status(c.aggregate.Load())
}

func (c *cycle) snapshot() StatusSnapshot {
	state := core.DisableInterrupts()
	defer core.RestoreInterrupts(state)

	s := StatusSnapshot{
		Aggregate: Status(c.aggregate.Load()),
		Cycles:    c.completed.Load(),
	}
	for i := range c.devices {
		s.Devices[i] = Status(c.devices[i].Load())
	}
	return s
}
