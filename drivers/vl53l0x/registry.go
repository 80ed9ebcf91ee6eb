package vl53l0x

import (
	"errors"

	"sumobot/core"
)

// Position identifies one of the front sensors
type Position uint8

const (
	Front Position = iota
	FrontLeft
	FrontRight

	NumPositions = 3
)

// Positions lists every position in bring-up order
var Positions = [NumPositions]Position{Front, FrontLeft, FrontRight}

func (p Position) String() string {
	switch p {
	case Front:
		return "front"
	case FrontLeft:
		return "front-left"
	case FrontRight:
		return "front-right"
	default:
		return "unknown"
	}
}

// ParsePosition returns the position named by s, as printed by String
func ParsePosition(s string) (Position, bool) {
	for _, p := range Positions {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// SensorConfig binds a position to its assigned bus address and its
// shutdown and interrupt lines
type SensorConfig struct {
	Address core.I2CAddress
	XShut   core.GPIOPin
	IRQ     core.GPIOPin
}

// Registry holds one SensorConfig per position
type Registry [NumPositions]SensorConfig

// DefaultAddresses are assigned to Front, FrontLeft and FrontRight
var DefaultAddresses = [NumPositions]core.I2CAddress{0x30, 0x31, 0x32}

// NewRegistry builds a registry using DefaultAddresses
func NewRegistry(xshut, irq [NumPositions]core.GPIOPin) Registry {
	var r Registry
	for i := range r {
		r[i] = SensorConfig{Address: DefaultAddresses[i], XShut: xshut[i], IRQ: irq[i]}
	}
	return r
}

var (
	errAddressRange    = errors.New("address is not a 7-bit address")
	errAddressDefault  = errors.New("address collides with the factory default")
	errAddressDup      = errors.New("address assigned twice")
	errLineDup         = errors.New("line assigned twice")
	errPositionUnknown = errors.New("unknown position")
)

// Validate checks that every assigned address is a distinct 7-bit address
// other than DefaultAddress and that no line is shared
func (r *Registry) Validate() error {
	for i, a := range r {
		switch {
		case a.Address > 0x7F:
			return &InitError{Kind: LineConfig, Position: Position(i), Step: stepRegistry, Err: errAddressRange}
		case a.Address == DefaultAddress:
			return &InitError{Kind: LineConfig, Position: Position(i), Step: stepRegistry, Err: errAddressDefault}
		case a.XShut == a.IRQ:
			return &InitError{Kind: LineConfig, Position: Position(i), Step: stepRegistry, Err: errLineDup}
		}
		for j := i + 1; j < len(r); j++ {
			b := r[j]
			if a.Address == b.Address {
				return &InitError{Kind: LineConfig, Position: Position(j), Step: stepRegistry, Err: errAddressDup}
			}
			if a.XShut == b.XShut || a.IRQ == b.IRQ || a.XShut == b.IRQ || a.IRQ == b.XShut {
				return &InitError{Kind: LineConfig, Position: Position(j), Step: stepRegistry, Err: errLineDup}
			}
		}
	}
	return nil
}
