package config

import (
	"fmt"

	"sumobot/core"
	"sumobot/drivers/vl53l0x"
)

// Validate checks a monitor configuration. It does not mutate it.
func (m *Monitor) Validate() error {
	if m.Serial.Device == "" {
		return fmt.Errorf("serial.device is required")
	}
	if err := validateThresholds(m.Thresholds); err != nil {
		return err
	}
	return m.Publish.validate()
}

// Validate checks a bench configuration. It does not mutate it.
func (b *Bench) Validate() error {
	switch b.Mode {
	case ModeIdentify, ModeScratch, ModeMulti:
	case ModeSingle:
		if _, ok := vl53l0x.ParsePosition(b.Position); !ok {
			return fmt.Errorf("mode single: unknown position %q", b.Position)
		}
	default:
		return fmt.Errorf("unknown mode %q", b.Mode)
	}

	switch b.Bus.Backend {
	case BusPeriph, BusI2CDev:
	default:
		return fmt.Errorf("unknown bus backend %q", b.Bus.Backend)
	}
	switch b.GPIO.Backend {
	case GPIOPeriph, GPIORpio:
	default:
		return fmt.Errorf("unknown gpio backend %q", b.GPIO.Backend)
	}

	// identify and scratch talk to one sensor at the factory address
	if b.Mode != ModeIdentify && b.Mode != ModeScratch {
		if err := b.validateSensors(); err != nil {
			return err
		}
	}

	if err := validateThresholds(b.Thresholds); err != nil {
		return err
	}
	return b.Publish.validate()
}

func (b *Bench) validateSensors() error {
	if len(b.Sensors) != vl53l0x.NumPositions {
		return fmt.Errorf("sensors: %d entries, want %d", len(b.Sensors), vl53l0x.NumPositions)
	}

	seen := make(map[vl53l0x.Position]bool)
	lines := make(map[string]string)
	for _, s := range b.Sensors {
		pos, ok := vl53l0x.ParsePosition(s.Position)
		if !ok {
			return fmt.Errorf("sensors: unknown position %q", s.Position)
		}
		if seen[pos] {
			return fmt.Errorf("sensors: position %q listed twice", s.Position)
		}
		seen[pos] = true

		for _, line := range []string{s.XShut, s.IRQ} {
			if line == "" {
				return fmt.Errorf("sensor %q: xshut and irq lines are required", s.Position)
			}
			if prev, used := lines[line]; used {
				return fmt.Errorf("line %s used by %q and %q", line, prev, s.Position)
			}
			lines[line] = s.Position
		}
	}

	// address rules live with the driver; lines are already checked, so
	// number them in order of appearance
	ids := make(map[string]core.GPIOPin)
	reg, err := b.Registry(func(name string) (core.GPIOPin, error) {
		if _, ok := ids[name]; !ok {
			ids[name] = core.GPIOPin(len(ids))
		}
		return ids[name], nil
	})
	if err != nil {
		return err
	}
	return reg.Validate()
}

func validateThresholds(th map[string]uint16) error {
	for name, mm := range th {
		if _, ok := vl53l0x.ParsePosition(name); !ok {
			return fmt.Errorf("thresholds: unknown position %q", name)
		}
		if mm == 0 || mm >= vl53l0x.OutOfRange {
			return fmt.Errorf("thresholds: %s = %d mm is out of range", name, mm)
		}
	}
	return nil
}

func (p *PublishConfig) validate() error {
	if p == nil {
		return nil
	}
	if p.Endpoint == "" {
		return fmt.Errorf("publish.endpoint is required")
	}
	if p.TimeoutMs < 0 {
		return fmt.Errorf("publish.timeout_ms must not be negative")
	}
	return nil
}
