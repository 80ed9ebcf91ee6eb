// Package vl53l0x drives the front VL53L0X time-of-flight sensors that share
// one I2C bus. Bring-up releases each sensor from hardware standby in turn and
// moves it off the factory address, calibration loads the reference SPADs,
// tuning and reference calibration, and ranging runs either one sensor at a
// time or all sensors in parallel, with completion signalled on each sensor's
// interrupt line.
//
// Typical use:
//
//	s := vl53l0x.New(bus, gpio, vl53l0x.DefaultConfig(registry))
//	if err := s.BringUpAndCalibrate(); err != nil { ... }
//	ranges, fresh, err := s.ReadMulti()
package vl53l0x

import "sumobot/core"

// Sensors owns the shared bus and the state of every front sensor
type Sensors struct {
	cfg  Config
	gpio core.GPIODriver

	devs     [NumPositions]device
	handlers [NumPositions]func()
	cycle    cycle
	ranges   [NumPositions]uint16
	ready    bool
}

// New prepares the sensors. No bus traffic happens until BringUpAndCalibrate.
func New(bus core.I2CBus, gpio core.GPIODriver, cfg Config) *Sensors {
	cfg.applyDefaults()
	s := &Sensors{cfg: cfg, gpio: gpio}
	for i := range s.devs {
		pos := Position(i)
		s.devs[i] = device{
			pos:   pos,
			i2c:   core.I2CDevice{Bus: bus, Address: DefaultAddress},
			polls: cfg.StatusPolls,
		}
		// bound once so the interrupt path never allocates
		s.handlers[i] = func() { s.onSampleReady(pos) }
		s.ranges[i] = OutOfRange
	}
	return s
}

// BringUpAndCalibrate assigns every sensor its address, calibrates it and
// arms its interrupt line. The first failure aborts.
func (s *Sensors) BringUpAndCalibrate() error {
	if s.ready {
		return &InitError{Kind: SpadRecoveryFailed, Position: Front, Step: stepCalibrated, Err: ErrAlreadyCalibrated}
	}
	if err := s.cfg.Sensors.Validate(); err != nil {
		return err
	}
	if err := s.bringUp(); err != nil {
		return err
	}
	for _, pos := range Positions {
		if err := s.calibrate(pos); err != nil {
			return err
		}
	}
	if err := s.armInterrupts(); err != nil {
		return err
	}
	s.ready = true
	core.DebugPrintln("[VL53L0X] all sensors ready")
	return nil
}

// Ready reports whether BringUpAndCalibrate completed
func (s *Sensors) Ready() bool {
	return s.ready
}

// Address returns the bus address currently used for pos
func (s *Sensors) Address(pos Position) core.I2CAddress {
	return s.devs[pos].i2c.Address
}

// Calibration returns the SPAD selection of pos and whether it was calibrated
func (s *Sensors) Calibration(pos Position) (CalibrationData, bool) {
	d := &s.devs[pos]
	return d.calib, d.calibrated
}

// Handler returns the completion handler bound to pos's interrupt line
func (s *Sensors) Handler(pos Position) func() {
	return s.handlers[pos]
}

func (s *Sensors) armInterrupts() error {
	for _, pos := range Positions {
		line := s.cfg.Sensors[pos].IRQ
		if err := s.gpio.SetFallingEdgeIRQ(line, s.handlers[pos]); err != nil {
			return &InitError{Kind: LineConfig, Position: pos, Step: stepInterrupt, Err: err}
		}
		if err := s.gpio.EnableIRQ(line); err != nil {
			return &InitError{Kind: LineConfig, Position: pos, Step: stepInterrupt, Err: err}
		}
	}
	return nil
}
