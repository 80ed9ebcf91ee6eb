//go:build rp2040

package main

import (
	"errors"
	"machine"

	"sumobot/core"
)

// numPins is the number of user GPIOs on the rp2040 (GPIO0-GPIO29)
const numPins = 30

var (
	errNoHandler = errors.New("gpio: no interrupt handler bound")
	errBadPin    = errors.New("gpio: no such pin")
)

// rpGPIODriver implements core.GPIODriver for the rp2040. Pin numbers are
// GPIO numbers.
type rpGPIODriver struct {
	modes    [numPins]core.PinMode
	handlers [numPins]func()
	armed    [numPins]func(machine.Pin)
}

func newRPGPIODriver() *rpGPIODriver {
	return &rpGPIODriver{}
}

func (d *rpGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin >= numPins {
		return errBadPin
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	d.modes[pin] = core.PinOutputLow
	return nil
}

func (d *rpGPIODriver) ConfigureInput(pin core.GPIOPin) error {
	if pin >= numPins {
		return errBadPin
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInput})
	d.modes[pin] = core.PinInput
	return nil
}

func (d *rpGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	if pin >= numPins {
		return errBadPin
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.modes[pin] = core.PinInputPullUp
	return nil
}

func (d *rpGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin >= numPins {
		return errBadPin
	}
	if !d.modes[pin].IsOutput() {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
	}
	machine.Pin(pin).Set(value)
	if value {
		d.modes[pin] = core.PinOutputHigh
	} else {
		d.modes[pin] = core.PinOutputLow
	}
	return nil
}

func (d *rpGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return machine.Pin(pin).Get(), nil
}

func (d *rpGPIODriver) PinMode(pin core.GPIOPin) core.PinMode {
	if pin >= numPins {
		return core.PinUnconfigured
	}
	return d.modes[pin]
}

func (d *rpGPIODriver) SetFallingEdgeIRQ(pin core.GPIOPin, handler func()) error {
	if pin >= numPins {
		return errBadPin
	}
	d.handlers[pin] = handler
	// wrapped here so arming from the main loop does not allocate
	d.armed[pin] = func(machine.Pin) { handler() }
	return nil
}

func (d *rpGPIODriver) EnableIRQ(pin core.GPIOPin) error {
	if pin >= numPins || d.handlers[pin] == nil {
		return errNoHandler
	}
	return machine.Pin(pin).SetInterrupt(machine.PinFalling, d.armed[pin])
}

func (d *rpGPIODriver) DisableIRQ(pin core.GPIOPin) error {
	if pin >= numPins {
		return errBadPin
	}
	return machine.Pin(pin).SetInterrupt(0, nil)
}
