//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"sumobot/core"
)

// rp2040 timer peripheral, a free-running 64-bit microsecond counter
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x28 // raw low word, no latching
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// InitClock hooks the core clock and delay to the hardware timer
func InitClock() {
	UpdateSystemTime()
	core.SetDelayFunc(busyWaitMS)
}

// hardwareTime returns the low 32 bits of the microsecond counter.
// TIMERAWL reads without latching the high word.
func hardwareTime() uint32 {
	return timerRAWL.Get()
}

// UpdateSystemTime copies the hardware time into the core clock
func UpdateSystemTime() {
	core.SetTime(hardwareTime())
}

// busyWaitMS spins on the hardware timer. Bring-up uses it before the
// scheduler runs, so it cannot sleep.
func busyWaitMS(ms uint32) {
	start := hardwareTime()
	wait := core.TimerFromMS(ms)
	for hardwareTime()-start < wait {
	}
	UpdateSystemTime()
}
