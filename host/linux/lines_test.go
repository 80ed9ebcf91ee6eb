//go:build linux

package linux

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"sumobot/core"
)

func TestLinesWatcher(t *testing.T) {
	l := newLines()
	var calls atomic.Int32
	l.bind(4, func() { calls.Add(1) })

	edges := make(chan struct{}, 4)
	wait := func(timeout time.Duration) bool {
		select {
		case <-edges:
			return true
		case <-time.After(timeout):
			return false
		}
	}
	if err := l.arm(4, wait); err != nil {
		t.Fatalf("arm failed: %v", err)
	}
	if err := l.arm(4, wait); err != nil {
		t.Fatalf("second arm failed: %v", err)
	}

	edges <- struct{}{}
	edges <- struct{}{}
	deadline := time.Now().Add(time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("handler ran %d times, want 2", got)
	}

	l.disarm(4)
	edges <- struct{}{}
	time.Sleep(2 * edgePoll)
	if got := calls.Load(); got != 2 {
		t.Errorf("handler ran after disarm: %d calls", got)
	}
}

func TestLinesArmWithoutHandler(t *testing.T) {
	l := newLines()
	err := l.arm(9, func(time.Duration) bool { return false })
	if !errors.Is(err, errNoHandler) {
		t.Errorf("got %v, want errNoHandler", err)
	}
}

func TestLinesModes(t *testing.T) {
	l := newLines()
	if l.mode(3) != core.PinUnconfigured {
		t.Error("unknown pin should be unconfigured")
	}
	l.setMode(3, core.PinInputPullUp)
	if l.mode(3) != core.PinInputPullUp {
		t.Errorf("mode = %s", l.mode(3))
	}
}

func TestParseBCM(t *testing.T) {
	tests := []struct {
		name string
		pin  core.GPIOPin
		ok   bool
	}{
		{"GPIO17", 17, true},
		{"gpio4", 4, true},
		{"BCM27", 27, true},
		{"22", 22, true},
		{"GPIO54", 0, false},
		{"P1_11", 0, false},
	}
	for _, tt := range tests {
		pin, err := parseBCM(tt.name)
		if (err == nil) != tt.ok || pin != tt.pin {
			t.Errorf("parseBCM(%q) = %d, %v", tt.name, pin, err)
		}
	}
}
