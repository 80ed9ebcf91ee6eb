//go:build linux

package linux

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"sumobot/core"
)

// PeriphGPIO implements core.GPIODriver on periph.io lines. Pins are
// numbered by the line's Number().
type PeriphGPIO struct {
	lines
	pinMu sync.Mutex
	pins  map[core.GPIOPin]gpio.PinIO
}

// NewPeriphGPIO initialises the periph host drivers
func NewPeriphGPIO() (*PeriphGPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return &PeriphGPIO{lines: newLines(), pins: make(map[core.GPIOPin]gpio.PinIO)}, nil
}

// Resolve looks a line up by name ("GPIO17", "17", ...) and registers it
func (g *PeriphGPIO) Resolve(name string) (core.GPIOPin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return 0, fmt.Errorf("no GPIO line named %q", name)
	}
	pin := core.GPIOPin(p.Number())

	g.pinMu.Lock()
	g.pins[pin] = p
	g.pinMu.Unlock()
	return pin, nil
}

func (g *PeriphGPIO) pin(pin core.GPIOPin) (gpio.PinIO, error) {
	g.pinMu.Lock()
	defer g.pinMu.Unlock()
	p, ok := g.pins[pin]
	if !ok {
		return nil, fmt.Errorf("gpio %d: %w", pin, errUnknownLine)
	}
	return p, nil
}

func (g *PeriphGPIO) ConfigureOutput(pin core.GPIOPin) error {
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.Low); err != nil {
		return err
	}
	g.setMode(pin, core.PinOutputLow)
	return nil
}

func (g *PeriphGPIO) ConfigureInput(pin core.GPIOPin) error {
	return g.configureIn(pin, gpio.Float, core.PinInput)
}

func (g *PeriphGPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	return g.configureIn(pin, gpio.PullUp, core.PinInputPullUp)
}

func (g *PeriphGPIO) configureIn(pin core.GPIOPin, pull gpio.Pull, mode core.PinMode) error {
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return err
	}
	g.setMode(pin, mode)
	return nil
}

func (g *PeriphGPIO) SetPin(pin core.GPIOPin, value bool) error {
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.Level(value)); err != nil {
		return err
	}
	if value {
		g.setMode(pin, core.PinOutputHigh)
	} else {
		g.setMode(pin, core.PinOutputLow)
	}
	return nil
}

func (g *PeriphGPIO) GetPin(pin core.GPIOPin) (bool, error) {
	p, err := g.pin(pin)
	if err != nil {
		return false, err
	}
	return bool(p.Read()), nil
}

func (g *PeriphGPIO) PinMode(pin core.GPIOPin) core.PinMode {
	return g.mode(pin)
}

func (g *PeriphGPIO) SetFallingEdgeIRQ(pin core.GPIOPin, handler func()) error {
	if _, err := g.pin(pin); err != nil {
		return err
	}
	g.bind(pin, handler)
	return nil
}

// EnableIRQ turns on falling edge detection and starts the watcher
func (g *PeriphGPIO) EnableIRQ(pin core.GPIOPin) error {
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	if err := p.In(g.pull(pin), gpio.FallingEdge); err != nil {
		return err
	}
	return g.arm(pin, p.WaitForEdge)
}

func (g *PeriphGPIO) DisableIRQ(pin core.GPIOPin) error {
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	g.disarm(pin)
	return p.In(g.pull(pin), gpio.NoEdge)
}

func (g *PeriphGPIO) pull(pin core.GPIOPin) gpio.Pull {
	if g.mode(pin) == core.PinInputPullUp {
		return gpio.PullUp
	}
	return gpio.Float
}

// Close stops every watcher
func (g *PeriphGPIO) Close() error {
	g.disarmAll()
	return nil
}
