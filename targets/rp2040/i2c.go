//go:build rp2040

package main

import (
	"device/rp"
	"machine"

	"sumobot/core"
)

// dwController drives the rp2040 DW_apb_i2c block for the polled core.Bus.
// The hardware sequences START, address and ACK itself; commands are pushed
// to IC_DATA_CMD one at a time so the STOP and RESTART flags can be attached
// to the right byte. A written byte is held until the next byte or the STOP
// request shows whether it is the last one.
type dwController struct {
	hw     *rp.I2C0_Type
	target core.I2CAddress

	held        bool
	heldByte    byte
	receiving   bool
	restartNext bool
	readIssued  bool
	stopPending bool
}

// newDWController configures bus at frequency on the given pins and takes
// over its registers
func newDWController(bus *machine.I2C, sda, scl machine.Pin, frequency uint32) (*dwController, error) {
	if err := bus.Configure(machine.I2CConfig{SDA: sda, SCL: scl, Frequency: frequency}); err != nil {
		return nil, err
	}
	c := &dwController{hw: bus.Bus, target: 0xFF}
	return c, nil
}

func (c *dwController) SetTarget(addr core.I2CAddress) {
	if addr == c.target {
		return
	}
	// IC_TAR is only writable while the block is disabled
	c.hw.IC_ENABLE.Set(0)
	for c.hw.IC_ENABLE_STATUS.Get()&rp.I2C0_IC_ENABLE_STATUS_IC_EN != 0 {
	}
	c.hw.IC_TAR.Set(uint32(addr))
	c.hw.IC_ENABLE.Set(1)
	c.target = addr
}

func (c *dwController) Start(dir core.I2CDirection) {
	if dir == core.I2CTransmit {
		// new transfer: drop flags left by the previous one
		c.hw.IC_CLR_TX_ABRT.Get()
		c.hw.IC_CLR_STOP_DET.Get()
		c.held = false
		c.receiving = false
		c.restartNext = false
		c.readIssued = false
		c.stopPending = false
		return
	}
	// repeated START: the held register byte goes out without a STOP
	c.flush(0)
	c.receiving = true
	c.restartNext = true
}

// StartPending is always false: the block sends the address with the first
// queued command and reports a missing ACK through Nacked. Because the
// register byte is held, an address NACK surfaces later: on writes in the
// first tx phase polled after the abort, at the latest in the stop phase; on
// reads in the rx phase, or the stop phase for single-byte reads.
func (c *dwController) StartPending() bool {
	return false
}

func (c *dwController) Nacked() bool {
	return c.hw.IC_RAW_INTR_STAT.Get()&rp.I2C0_IC_RAW_INTR_STAT_TX_ABRT != 0
}

func (c *dwController) TxReady() bool {
	return c.hw.IC_STATUS.Get()&rp.I2C0_IC_STATUS_TFNF != 0
}

func (c *dwController) WriteByte(b byte) {
	c.flush(0)
	c.held = true
	c.heldByte = b
}

// RxReady queues a read command if none is outstanding, then reports
// whether its byte has arrived
func (c *dwController) RxReady() bool {
	if !c.readIssued {
		c.pushRead(0)
	}
	return c.hw.IC_RXFLR.Get() > 0
}

func (c *dwController) ReadByte() byte {
	c.readIssued = false
	return byte(c.hw.IC_DATA_CMD.Get())
}

// Stop attaches the STOP flag to the last command of the transfer: the held
// byte when transmitting, a final read command when receiving
func (c *dwController) Stop() {
	switch {
	case c.held:
		c.flush(rp.I2C0_IC_DATA_CMD_STOP)
		c.stopPending = true
	case c.receiving && !c.readIssued:
		c.pushRead(rp.I2C0_IC_DATA_CMD_STOP)
		c.stopPending = true
	case c.Nacked():
		// the block generates the STOP itself after an abort
		c.stopPending = true
	}
}

func (c *dwController) StopPending() bool {
	if !c.stopPending {
		return false
	}
	if c.hw.IC_RAW_INTR_STAT.Get()&rp.I2C0_IC_RAW_INTR_STAT_STOP_DET == 0 {
		return true
	}
	c.hw.IC_CLR_STOP_DET.Get()
	c.stopPending = false
	return false
}

func (c *dwController) flush(flags uint32) {
	if !c.held {
		return
	}
	c.held = false
	c.hw.IC_DATA_CMD.Set(uint32(c.heldByte) | flags)
}

func (c *dwController) pushRead(flags uint32) {
	flags |= rp.I2C0_IC_DATA_CMD_CMD
	if c.restartNext {
		flags |= rp.I2C0_IC_DATA_CMD_RESTART
		c.restartNext = false
	}
	c.hw.IC_DATA_CMD.Set(flags)
	c.readIssued = true
}
