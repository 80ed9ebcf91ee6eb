package config

import (
	"fmt"
	"time"

	"sumobot/core"
	"sumobot/drivers/vl53l0x"
)

// LineResolver maps a configured line name to the backend's pin number
type LineResolver func(name string) (core.GPIOPin, error)

// Registry builds the driver registry from the sensors list. Positions
// missing from the list keep a zero entry, which Validate rejects.
func (b *Bench) Registry(resolve LineResolver) (vl53l0x.Registry, error) {
	var reg vl53l0x.Registry
	for _, s := range b.Sensors {
		pos, ok := vl53l0x.ParsePosition(s.Position)
		if !ok {
			return reg, fmt.Errorf("sensors: unknown position %q", s.Position)
		}
		xshut, err := resolve(s.XShut)
		if err != nil {
			return reg, fmt.Errorf("sensor %s: xshut: %w", pos, err)
		}
		irq, err := resolve(s.IRQ)
		if err != nil {
			return reg, fmt.Errorf("sensor %s: irq: %w", pos, err)
		}
		addr := core.I2CAddress(s.Address)
		if addr == 0 {
			addr = vl53l0x.DefaultAddresses[pos]
		}
		reg[pos] = vl53l0x.SensorConfig{Address: addr, XShut: xshut, IRQ: irq}
	}
	return reg, nil
}

// DriverConfig returns the driver configuration for a resolved registry
func (b *Bench) DriverConfig(reg vl53l0x.Registry) vl53l0x.Config {
	return vl53l0x.Config{
		Sensors:           reg,
		BootDelay:         b.BootDelay,
		FirstCycleTimeout: b.FirstCycleTimeout,
	}
}

// BusRetries returns the polled bus retry budget
func (b *Bench) BusRetries() core.BusConfig {
	return core.BusConfig{Retries: b.Retries}
}

// Threshold returns the alert distance for a position, or zero when none
// is configured
func Threshold(th map[string]uint16, pos vl53l0x.Position) uint16 {
	return th[pos.String()]
}

// Timeout returns the Modbus request timeout
func (p *PublishConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}
