package config

import (
	"time"

	"sumobot/host/serial"
)

// Normalize fills unset fields with defaults
func (m *Monitor) Normalize() {
	def := serial.DefaultConfig(m.Serial.Device)
	if m.Serial.Baud == 0 {
		m.Serial.Baud = def.Baud
	}
	if m.Serial.ReadTimeout == 0 {
		m.Serial.ReadTimeout = def.ReadTimeout
	}
	m.Publish.normalize()
}

// Normalize fills unset fields with defaults
func (b *Bench) Normalize() {
	if b.Mode == "" {
		b.Mode = ModeMulti
	}
	if b.Interval == 0 {
		b.Interval = 50 * time.Millisecond
	}
	if b.Bus.Backend == "" {
		b.Bus.Backend = BusPeriph
	}
	if b.Bus.Backend == BusI2CDev && b.Bus.Device == "" {
		b.Bus.Device = "/dev/i2c-1"
	}
	if b.GPIO.Backend == "" {
		b.GPIO.Backend = GPIOPeriph
	}
	b.Publish.normalize()
}

func (p *PublishConfig) normalize() {
	if p == nil {
		return
	}
	if p.UnitID == 0 {
		p.UnitID = 1
	}
	if p.TimeoutMs == 0 {
		p.TimeoutMs = 1000
	}
}
