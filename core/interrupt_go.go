//go:build !tinygo

package core

import "sync"

// InterruptState is a placeholder for interrupt state on regular Go
type InterruptState uintptr

// Host builds deliver "interrupts" from goroutines (edge watchers, tests),
// so the critical section is a mutex. Not reentrant.
var irqMu sync.Mutex

// DisableInterrupts enters the critical section shared with interrupt handlers
func DisableInterrupts() InterruptState {
	irqMu.Lock()
	return 0
}

// RestoreInterrupts leaves the critical section
func RestoreInterrupts(state InterruptState) {
	irqMu.Unlock()
}
