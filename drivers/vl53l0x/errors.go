package vl53l0x

import "errors"

// Sentinels matched by InitError and RangeError through errors.Is
var (
	ErrPowerUpMismatch   = errors.New("vl53l0x: power-up mismatch")
	ErrSpadRecovery      = errors.New("vl53l0x: spad recovery failed")
	ErrCalibrationBus    = errors.New("vl53l0x: calibration bus error")
	ErrLineConfig        = errors.New("vl53l0x: line configuration")
	ErrMeasureOngoing    = errors.New("vl53l0x: measurement ongoing")
	ErrRangeBus          = errors.New("vl53l0x: ranging bus error")
	ErrFirstCycleTimeout = errors.New("vl53l0x: first cycle timeout")
	ErrNotInitialized    = errors.New("vl53l0x: not initialized")

	// ErrAlreadyCalibrated is wrapped when SPAD recovery would read back an
	// already written enable map
	ErrAlreadyCalibrated = errors.New("vl53l0x: already calibrated")
	// ErrStatusTimeout is wrapped when a device status poll exhausts Config.StatusPolls
	ErrStatusTimeout = errors.New("vl53l0x: device status poll timeout")

	errModelID       = errors.New("unexpected model id")
	errSpadShortage  = errors.New("not enough good spads")
	errLineNotOutput = errors.New("xshut line is not an output driven low")
	errLineNotInput  = errors.New("interrupt line is not an input")
)

// InitKind classifies bring-up and calibration failures
type InitKind uint8

const (
	PowerUpMismatch InitKind = iota + 1
	SpadRecoveryFailed
	CalibrationBusError
	LineConfig
)

func (k InitKind) String() string {
	switch k {
	case PowerUpMismatch:
		return "power-up mismatch"
	case SpadRecoveryFailed:
		return "spad recovery failed"
	case CalibrationBusError:
		return "calibration bus error"
	case LineConfig:
		return "line configuration"
	default:
		return "unknown"
	}
}

// Bring-up and calibration steps named in errors
const (
	stepRegistry    = "registry"
	stepLines       = "line check"
	stepModelID     = "model id"
	stepSetAddress  = "set address"
	stepDataInit    = "data init"
	stepSpadInfo    = "spad info"
	stepSpadSelect  = "spad select"
	stepTuning      = "tuning"
	stepInterrupt   = "interrupt config"
	stepSequence    = "sequence steps"
	stepVHV         = "vhv calibration"
	stepPhase       = "phase calibration"
	stepCalibrated  = "calibration guard"
	stepRangeStart  = "range start"
	stepRangeResult = "range result"
)

// InitError reports a failed bring-up or calibration step
type InitError struct {
	Kind     InitKind
	Position Position
	Step     string
	Err      error
}

func (e *InitError) Error() string {
	msg := "vl53l0x: " + e.Kind.String() + " (" + e.Position.String() + ", " + e.Step + ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InitError) Is(target error) bool {
	switch target {
	case ErrPowerUpMismatch:
		return e.Kind == PowerUpMismatch
	case ErrSpadRecovery:
		return e.Kind == SpadRecoveryFailed
	case ErrCalibrationBus:
		return e.Kind == CalibrationBusError
	case ErrLineConfig:
		return e.Kind == LineConfig
	}
	return false
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// RangeKind classifies ranging failures
type RangeKind uint8

const (
	MeasureOngoing RangeKind = iota + 1
	RangeBus
	FirstCycleTimeout
	NotInitialized
)

func (k RangeKind) String() string {
	switch k {
	case MeasureOngoing:
		return "measurement ongoing"
	case RangeBus:
		return "bus error"
	case FirstCycleTimeout:
		return "first cycle timeout"
	case NotInitialized:
		return "not initialized"
	default:
		return "unknown"
	}
}

// RangeError reports a failed ranging operation
type RangeError struct {
	Kind     RangeKind
	Position Position
	Step     string
	Err      error
}

func (e *RangeError) Error() string {
	msg := "vl53l0x: " + e.Kind.String()
	if e.Kind == RangeBus {
		msg += " (" + e.Position.String() + ", " + e.Step + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RangeError) Is(target error) bool {
	switch target {
	case ErrMeasureOngoing:
		return e.Kind == MeasureOngoing
	case ErrRangeBus:
		return e.Kind == RangeBus
	case ErrFirstCycleTimeout:
		return e.Kind == FirstCycleTimeout
	case ErrNotInitialized:
		return e.Kind == NotInitialized
	}
	return false
}

func (e *RangeError) Unwrap() error {
	return e.Err
}
