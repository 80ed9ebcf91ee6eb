package vl53l0x

import (
	"errors"

	"sumobot/core"
)

// calibrate runs data init, static init and reference calibration on one
// sensor at its assigned address
func (s *Sensors) calibrate(pos Position) error {
	d := &s.devs[pos]
	if d.calibrated {
		return &InitError{Kind: SpadRecoveryFailed, Position: pos, Step: stepCalibrated, Err: ErrAlreadyCalibrated}
	}

	if err := d.dataInit(); err != nil {
		return calibrationError(pos, stepDataInit, err)
	}
	if err := d.setSpads(); err != nil {
		if errors.Is(err, errSpadShortage) {
			return &InitError{Kind: SpadRecoveryFailed, Position: pos, Step: stepSpadSelect, Err: err}
		}
		return calibrationError(pos, stepSpadInfo, err)
	}
	// the enable registers no longer hold the good map
	d.calibrated = true

	if err := d.writeSeq(defaultTuning[:]); err != nil {
		return calibrationError(pos, stepTuning, err)
	}
	if err := d.configureInterrupt(); err != nil {
		return calibrationError(pos, stepInterrupt, err)
	}
	if err := d.setSequenceSteps(seqStepsRanging); err != nil {
		return calibrationError(pos, stepSequence, err)
	}
	if err := s.referenceCalibration(pos); err != nil {
		return err
	}

	aperture := uint32(0)
	if d.calib.SpadAperture {
		aperture = 1
	}
	core.RecordEvent(core.EvtCalibrated, uint8(pos), uint32(d.calib.SpadCount), aperture)
	core.DebugPrintln("[VL53L0X] " + pos.String() + " calibrated, spads=" + core.Utoa(uint32(d.calib.SpadCount)))
	return nil
}

// referenceCalibration runs the VHV and phase calibrations and restores the
// ranging sequence steps
func (s *Sensors) referenceCalibration(pos Position) error {
	d := &s.devs[pos]
	if err := d.refCalibration(seqStepVHV, sysrangeStartSingle|sysrangeVHV); err != nil {
		return calibrationError(pos, stepVHV, err)
	}
	if err := d.refCalibration(seqStepPhase, sysrangeStartSingle); err != nil {
		return calibrationError(pos, stepPhase, err)
	}
	if err := d.setSequenceSteps(seqStepsRanging); err != nil {
		return calibrationError(pos, stepSequence, err)
	}
	return nil
}

// Recalibrate reruns the reference calibration of pos. The datasheet asks
// for it after a temperature change of more than 8 degrees. It is refused
// while a multi cycle is measuring; a completed but unread cycle is dropped
// and started again afterwards.
func (s *Sensors) Recalibrate(pos Position) error {
	if pos >= NumPositions {
		return &RangeError{Kind: RangeBus, Position: pos, Err: errPositionUnknown}
	}
	if !s.ready {
		return &RangeError{Kind: NotInitialized}
	}
	st := s.cycle.status()
	if st == Measuring {
		return &RangeError{Kind: MeasureOngoing}
	}
	resume := st == Done
	s.cycle.abort()

	err := s.referenceCalibration(pos)
	if resume {
		if rerr := s.restartCycle(); err == nil {
			err = rerr
		}
	}
	return err
}

func calibrationError(pos Position, step string, err error) error {
	return &InitError{Kind: CalibrationBusError, Position: pos, Step: step, Err: err}
}
