package vl53l0x

import "sumobot/core"

// checkLines verifies that every sensor is held in standby and every
// interrupt line is an input before bring-up touches the bus
func (s *Sensors) checkLines() error {
	for _, pos := range Positions {
		sc := s.cfg.Sensors[pos]
		if s.gpio.PinMode(sc.XShut) != core.PinOutputLow {
			return &InitError{Kind: LineConfig, Position: pos, Step: stepLines, Err: errLineNotOutput}
		}
		if !s.gpio.PinMode(sc.IRQ).IsInput() {
			return &InitError{Kind: LineConfig, Position: pos, Step: stepLines, Err: errLineNotInput}
		}
	}
	return nil
}

// bringUp wakes the sensors one at a time and moves each off the default
// address before the next one is released
func (s *Sensors) bringUp() error {
	if err := s.checkLines(); err != nil {
		return err
	}
	for _, pos := range Positions {
		if err := s.wake(pos); err != nil {
			core.DebugPrintln("[VL53L0X] bring-up failed: " + err.Error())
			return err
		}
	}
	return nil
}

func (s *Sensors) wake(pos Position) error {
	sc := s.cfg.Sensors[pos]
	d := &s.devs[pos]

	if err := s.gpio.SetPin(sc.XShut, true); err != nil {
		return &InitError{Kind: LineConfig, Position: pos, Step: stepLines, Err: err}
	}
	d.i2c.Address = DefaultAddress
	core.Delay(s.cfg.bootDelayMS())

	id, err := d.identify()
	if err != nil {
		return &InitError{Kind: PowerUpMismatch, Position: pos, Step: stepModelID, Err: err}
	}
	if id != ModelID {
		return &InitError{Kind: PowerUpMismatch, Position: pos, Step: stepModelID, Err: errModelID}
	}
	if err := d.setAddress(sc.Address); err != nil {
		return &InitError{Kind: PowerUpMismatch, Position: pos, Step: stepSetAddress, Err: err}
	}

	core.RecordEvent(core.EvtBringUp, uint8(pos), uint32(sc.Address), 0)
	core.DebugPrintln("[VL53L0X] " + pos.String() + " at 0x" + core.Hex8(uint8(sc.Address)))
	return nil
}
