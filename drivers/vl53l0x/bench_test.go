package vl53l0x

import (
	"errors"
	"strings"
	"testing"

	"sumobot/core"
)

func TestPowerOne(t *testing.T) {
	r := newRig(Config{})
	reg := NewRegistry(testXShut, testIRQ)

	if err := PowerOne(r.gpio, reg, FrontLeft, 1); err != nil {
		t.Fatalf("PowerOne failed: %v", err)
	}
	for i, s := range r.sim {
		if s.awake != (Position(i) == FrontLeft) {
			t.Errorf("%s awake = %v", Position(i), s.awake)
		}
	}
	if got := IdentifyStep(r.bus); got != "Read expected VL53L0X ID (0xee)" {
		t.Errorf("IdentifyStep = %q", got)
	}
}

func TestIdentifyStepOutcomes(t *testing.T) {
	r := newRig(Config{})
	if got := IdentifyStep(r.bus); !strings.HasPrefix(got, "I2C error") {
		t.Errorf("no sensor awake: %q", got)
	}

	r.sim[0].id = 0xAA
	r.sim[0].wake()
	if got := IdentifyStep(r.bus); got != "Read unexpected VL53L0X ID 0xaa (expected 0xee)" {
		t.Errorf("wrong id: %q", got)
	}
}

func TestScratchStep(t *testing.T) {
	r := newRig(Config{})
	r.sim[2].wake()
	if got := ScratchStep(r.bus); got != "Read back expected value 0xab" {
		t.Errorf("ScratchStep = %q", got)
	}

	r.bus.fail = func(addr core.I2CAddress, reg uint8, write bool) error {
		if write {
			return &core.BusError{Addr: addr, Phase: core.PhaseTx, Timeout: true}
		}
		return nil
	}
	if got := ScratchStep(r.bus); !strings.HasPrefix(got, "I2C error") {
		t.Errorf("failed write: %q", got)
	}
}

func TestBenchLines(t *testing.T) {
	if got := RangeLine(431, nil); got != "Range 431 mm" {
		t.Errorf("RangeLine = %q", got)
	}
	if got := RangeLine(OutOfRange, nil); got != "Out of range" {
		t.Errorf("RangeLine = %q", got)
	}
	if got := RangeLine(0, errors.New("boom")); got != "Range measure failed: boom" {
		t.Errorf("RangeLine = %q", got)
	}

	got := MultiLine([NumPositions]uint16{100, OutOfRange, 7}, false, nil)
	if got != "front=100 front-left=-- front-right=7 (stale)" {
		t.Errorf("MultiLine = %q", got)
	}
}

func TestParseBenchMode(t *testing.T) {
	for _, m := range []BenchMode{BenchIdentify, BenchScratch, BenchSingle, BenchMulti} {
		got, ok := ParseBenchMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseBenchMode(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseBenchMode("off"); ok {
		t.Error("off is not a runnable mode")
	}
}
