package core

import (
	"sync/atomic"
	"time"
)

// TimerFreq is the tick rate fed to SetTime (the rp2040 microsecond timer)
const TimerFreq = 1000000

var systemTicks atomic.Uint32

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return systemTicks.Load()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	systemTicks.Store(ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerFromMS converts milliseconds to timer ticks
func TimerFromMS(ms uint32) uint32 {
	return uint32(uint64(ms) * TimerFreq / 1000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TimerBefore reports whether a is earlier than b, allowing for wraparound
func TimerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// DelayFunc blocks the caller for a number of milliseconds
type DelayFunc func(ms uint32)

var delayFn DelayFunc = func(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// SetDelayFunc replaces the busy-wait primitive (tests, bare-metal targets)
func SetDelayFunc(fn DelayFunc) {
	if fn != nil {
		delayFn = fn
	}
}

// Delay blocks the calling context for ms milliseconds
func Delay(ms uint32) {
	delayFn(ms)
}
