package core

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// maxTxWrite bounds the register address plus payload of one write
const maxTxWrite = 1 + 8

var errTxTooLong = errors.New("i2c write too long")

// TxBus implements I2CBus on top of any transaction-level bus
// (machine.I2C, a periph.io bus, ...). Failures surface as tx-phase NACKs
// carrying the driver error.
type TxBus struct {
	mu   sync.Mutex
	bus  drivers.I2C
	wbuf [maxTxWrite]byte
}

// NewTxBus wraps a drivers.I2C
func NewTxBus(bus drivers.I2C) *TxBus {
	return &TxBus{bus: bus}
}

// ReadRegister writes reg and reads len(out) bytes with a repeated START
func (t *TxBus) ReadRegister(addr I2CAddress, reg uint8, out []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.wbuf[0] = reg
	if err := t.bus.Tx(uint16(addr), t.wbuf[:1], out); err != nil {
		return &BusError{Addr: addr, Phase: PhaseTx, Err: err}
	}
	return nil
}

// WriteRegister writes reg followed by data in one transaction
func (t *TxBus) WriteRegister(addr I2CAddress, reg uint8, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(data)+1 > len(t.wbuf) {
		return &BusError{Addr: addr, Phase: PhaseTx, Err: errTxTooLong}
	}
	t.wbuf[0] = reg
	n := copy(t.wbuf[1:], data)
	if err := t.bus.Tx(uint16(addr), t.wbuf[:n+1], nil); err != nil {
		return &BusError{Addr: addr, Phase: PhaseTx, Err: err}
	}
	return nil
}
