//go:build linux

package linux

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"sumobot/core"
)

// RpioGPIO implements core.GPIODriver on the BCM2835 family's memory-mapped
// GPIO block. Pins are BCM numbers. Edges are latched by the hardware event
// detector and polled by the watcher.
type RpioGPIO struct {
	lines
	poll time.Duration
}

// NewRpioGPIO maps the GPIO registers. Close unmaps them.
func NewRpioGPIO() (*RpioGPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio open: %w", err)
	}
	return &RpioGPIO{lines: newLines(), poll: time.Millisecond}, nil
}

// Resolve parses a BCM line name: "GPIO17", "BCM17" or "17"
func (g *RpioGPIO) Resolve(name string) (core.GPIOPin, error) {
	return parseBCM(name)
}

func parseBCM(name string) (core.GPIOPin, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.ToUpper(name), "GPIO"), "BCM")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n > 53 {
		return 0, fmt.Errorf("not a BCM line: %q", name)
	}
	return core.GPIOPin(n), nil
}

func (g *RpioGPIO) ConfigureOutput(pin core.GPIOPin) error {
	p := rpio.Pin(pin)
	p.Output()
	p.Low()
	g.setMode(pin, core.PinOutputLow)
	return nil
}

func (g *RpioGPIO) ConfigureInput(pin core.GPIOPin) error {
	p := rpio.Pin(pin)
	p.Input()
	p.PullOff()
	g.setMode(pin, core.PinInput)
	return nil
}

func (g *RpioGPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	p := rpio.Pin(pin)
	p.Input()
	p.PullUp()
	g.setMode(pin, core.PinInputPullUp)
	return nil
}

func (g *RpioGPIO) SetPin(pin core.GPIOPin, value bool) error {
	p := rpio.Pin(pin)
	if value {
		p.High()
		g.setMode(pin, core.PinOutputHigh)
	} else {
		p.Low()
		g.setMode(pin, core.PinOutputLow)
	}
	return nil
}

func (g *RpioGPIO) GetPin(pin core.GPIOPin) (bool, error) {
	return rpio.Pin(pin).Read() == rpio.High, nil
}

func (g *RpioGPIO) PinMode(pin core.GPIOPin) core.PinMode {
	return g.mode(pin)
}

func (g *RpioGPIO) SetFallingEdgeIRQ(pin core.GPIOPin, handler func()) error {
	g.bind(pin, handler)
	return nil
}

// EnableIRQ arms the falling edge detector and polls its event latch
func (g *RpioGPIO) EnableIRQ(pin core.GPIOPin) error {
	p := rpio.Pin(pin)
	p.Detect(rpio.FallEdge)
	p.EdgeDetected() // drop a stale latch

	return g.arm(pin, func(timeout time.Duration) bool {
		deadline := time.Now().Add(timeout)
		for time.Now().Before(deadline) {
			if p.EdgeDetected() {
				return true
			}
			time.Sleep(g.poll)
		}
		return false
	})
}

func (g *RpioGPIO) DisableIRQ(pin core.GPIOPin) error {
	g.disarm(pin)
	rpio.Pin(pin).Detect(rpio.NoEdge)
	return nil
}

// Close stops every watcher and unmaps the registers
func (g *RpioGPIO) Close() error {
	g.disarmAll()
	return rpio.Close()
}
