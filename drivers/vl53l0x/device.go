package vl53l0x

import "sumobot/core"

// CalibrationData is what SPAD recovery learned about a device
type CalibrationData struct {
	SpadCount    uint8
	SpadAperture bool
	Enabled      [SpadMapRows]byte
}

// device is one sensor on the shared bus. All methods perform blocking bus
// transfers and must not be called from interrupt context.
type device struct {
	pos   Position
	i2c   core.I2CDevice
	polls uint32

	stopVariable uint8
	calib        CalibrationData
	calibrated   bool
}

func (d *device) writeSeq(seq []regWrite) error {
	for _, w := range seq {
		if err := d.i2c.Write8(w.reg, w.val); err != nil {
			return err
		}
	}
	return nil
}

// setBits performs a read-modify-write of a single register
func (d *device) setBits(reg, set, clear uint8) error {
	v, err := d.i2c.Read8(reg)
	if err != nil {
		return err
	}
	return d.i2c.Write8(reg, v&^clear|set)
}

// pollUntil reads reg until mask selects a bit (want true) or no bit
// (want false). Exhausting the budget yields ErrStatusTimeout.
func (d *device) pollUntil(reg, mask uint8, want bool) error {
	for n := d.polls; n > 0; n-- {
		v, err := d.i2c.Read8(reg)
		if err != nil {
			return err
		}
		if (v&mask != 0) == want {
			return nil
		}
	}
	return ErrStatusTimeout
}

// identify reads the model ID register
func (d *device) identify() (uint8, error) {
	return d.i2c.Read8(regModelID)
}

// setAddress moves the device to addr. Later transfers use the new address.
func (d *device) setAddress(addr core.I2CAddress) error {
	if err := d.i2c.Write8(regI2CSlaveDeviceAddress, uint8(addr)&0x7F); err != nil {
		return err
	}
	d.i2c.Address = addr
	return nil
}

// dataInit selects the 2V8 pad supply and captures the stop variable
func (d *device) dataInit() error {
	if err := d.setBits(regVHVConfigPadSCLSDA, extsupHV2V8, 0); err != nil {
		return err
	}
	if err := d.i2c.Write8(regI2CMode, 0x00); err != nil {
		return err
	}
	if err := d.writeSeq(stopVariableEnter[:]); err != nil {
		return err
	}
	v, err := d.i2c.Read8(regStopVariable)
	if err != nil {
		return err
	}
	d.stopVariable = v
	return d.writeSeq(stopVariableLeave[:])
}

// configureInterrupt raises GPIO1 active low on every new sample
func (d *device) configureInterrupt() error {
	if err := d.i2c.Write8(regSystemInterruptConfigGPIO, interruptNewSampleReady); err != nil {
		return err
	}
	if err := d.setBits(regGPIOHVMuxActiveHigh, 0, gpioActiveHighBit); err != nil {
		return err
	}
	return d.clearInterrupt()
}

func (d *device) clearInterrupt() error {
	return d.i2c.Write8(regSystemInterruptClear, 0x01)
}

func (d *device) setSequenceSteps(steps uint8) error {
	return d.i2c.Write8(regSystemSequenceConfig, steps)
}

// refCalibration runs one single-shot reference calibration
func (d *device) refCalibration(steps, start uint8) error {
	if err := d.setSequenceSteps(steps); err != nil {
		return err
	}
	if err := d.i2c.Write8(regSysrangeStart, start); err != nil {
		return err
	}
	if err := d.waitSample(); err != nil {
		return err
	}
	if err := d.clearInterrupt(); err != nil {
		return err
	}
	return d.i2c.Write8(regSysrangeStart, 0x00)
}

// startRange starts a single-shot measurement
func (d *device) startRange() error {
	if err := d.writeSeq(stopVariableEnter[:]); err != nil {
		return err
	}
	if err := d.i2c.Write8(regStopVariable, d.stopVariable); err != nil {
		return err
	}
	if err := d.writeSeq(stopVariableLeave[:]); err != nil {
		return err
	}
	if err := d.i2c.Write8(regSysrangeStart, sysrangeStartSingle); err != nil {
		return err
	}
	return d.pollUntil(regSysrangeStart, sysrangeBusy, false)
}

func (d *device) waitSample() error {
	return d.pollUntil(regResultInterruptStatus, interruptStatusMask, true)
}

// readRange waits for the sample, reads it and clears the interrupt
func (d *device) readRange() (uint16, error) {
	if err := d.waitSample(); err != nil {
		return 0, err
	}
	r, err := d.i2c.Read16(regResultRange)
	if err != nil {
		return 0, err
	}
	if err := d.clearInterrupt(); err != nil {
		return 0, err
	}
	if r == OutOfRange || r == rangeInvalid {
		r = OutOfRange
	}
	return r, nil
}
