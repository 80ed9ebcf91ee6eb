//go:build linux

// Package linux runs the sensing stack on a Linux board: I2C through
// periph.io or /dev/i2c-N, GPIO lines through periph.io or go-rpio.
package linux

import (
	"fmt"
	"sync"

	i2cdev "github.com/swdee/go-i2c"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"sumobot/core"
)

// PeriphBus is a periph.io bus exposed as a core.I2CBus
type PeriphBus struct {
	*core.TxBus
	bus i2c.BusCloser
}

// OpenPeriphBus opens the named bus, or the first one when name is empty
func OpenPeriphBus(name string) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return &PeriphBus{TxBus: core.NewTxBus(bus), bus: bus}, nil
}

func (b *PeriphBus) Close() error {
	return b.bus.Close()
}

// DevBus talks to /dev/i2c-N through go-i2c. go-i2c binds a handle to one
// target address, so a handle is opened per address on first use.
type DevBus struct {
	mu      sync.Mutex
	dev     string
	handles map[core.I2CAddress]*i2cdev.Options
	wbuf    [9]byte
}

// OpenDevBus prepares a bus on dev, e.g. "/dev/i2c-1"
func OpenDevBus(dev string) *DevBus {
	return &DevBus{dev: dev, handles: make(map[core.I2CAddress]*i2cdev.Options)}
}

func (b *DevBus) handle(addr core.I2CAddress) (*i2cdev.Options, error) {
	if h, ok := b.handles[addr]; ok {
		return h, nil
	}
	h, err := i2cdev.New(uint8(addr), b.dev)
	if err != nil {
		return nil, err
	}
	b.handles[addr] = h
	return h, nil
}

// ReadRegister writes reg then reads len(out) bytes. The kernel issues a
// STOP between the two messages.
func (b *DevBus) ReadRegister(addr core.I2CAddress, reg uint8, out []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, err := b.handle(addr)
	if err != nil {
		return &core.BusError{Addr: addr, Phase: core.PhaseStart, Err: err}
	}
	b.wbuf[0] = reg
	if _, err := h.WriteBytes(b.wbuf[:1]); err != nil {
		return &core.BusError{Addr: addr, Phase: core.PhaseTx, Err: err}
	}
	n, err := h.ReadBytes(out)
	if err != nil {
		return &core.BusError{Addr: addr, Phase: core.PhaseRx, Err: err}
	}
	if n < len(out) {
		return &core.BusError{Addr: addr, Phase: core.PhaseRx, Err: fmt.Errorf("short read: %d of %d bytes", n, len(out))}
	}
	return nil
}

// WriteRegister writes reg followed by data in one message
func (b *DevBus) WriteRegister(addr core.I2CAddress, reg uint8, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(data)+1 > len(b.wbuf) {
		return &core.BusError{Addr: addr, Phase: core.PhaseTx, Err: fmt.Errorf("write of %d bytes too long", len(data))}
	}
	h, err := b.handle(addr)
	if err != nil {
		return &core.BusError{Addr: addr, Phase: core.PhaseStart, Err: err}
	}
	b.wbuf[0] = reg
	n := copy(b.wbuf[1:], data)
	if _, err := h.WriteBytes(b.wbuf[:n+1]); err != nil {
		return &core.BusError{Addr: addr, Phase: core.PhaseTx, Err: err}
	}
	return nil
}

// Close releases every open handle
func (b *DevBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for addr, h := range b.handles {
		h.Close()
		delete(b.handles, addr)
	}
	return nil
}
