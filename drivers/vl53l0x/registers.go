package vl53l0x

import "sumobot/core"

// DefaultAddress is the address every VL53L0X answers on after XSHUT release
const DefaultAddress core.I2CAddress = 0x29

// ModelID is the content of the identification register
const ModelID = 0xEE

// OutOfRange is reported when nothing was detected within range
const OutOfRange uint16 = 8190

// Register map (subset used by this driver)
const (
	regSysrangeStart             = 0x00
	regSystemSequenceConfig      = 0x01
	regSystemInterruptConfigGPIO = 0x0A
	regSystemInterruptClear      = 0x0B
	regResultInterruptStatus     = 0x13
	regResultRangeStatus         = 0x14
	regResultRange               = regResultRangeStatus + 10
	regDynamicSpadRefEnStart     = 0x4F
	regDynamicSpadNumRequested   = 0x4E
	regPowerManagement           = 0x80
	regInternalTuning            = 0x81
	regNVMStrobe                 = 0x83
	regGPIOHVMuxActiveHigh       = 0x84
	regI2CMode                   = 0x88
	regVHVConfigPadSCLSDA        = 0x89
	regI2CSlaveDeviceAddress     = 0x8A
	regNVMData                   = 0x90
	regStopVariable              = 0x91
	regNVMCommand                = 0x94
	regGlobalConfigSpadEnables   = 0xB0
	regGlobalConfigRefEnStart    = 0xB6
	regModelID                   = 0xC0
	regPageSelect                = 0xFF
)

const (
	interruptNewSampleReady = 0x04
	interruptStatusMask     = 0x07
	gpioActiveHighBit       = 0x10
	extsupHV2V8             = 0x01
	sysrangeBusy            = 0x01
	sysrangeStartSingle     = 0x01
	sysrangeVHV             = 0x40
	nvmSpadInfo             = 0x6B
	nvmStrobeEnable         = 0x04

	seqStepDSS        = 0x28
	seqStepPreRange   = 0x40
	seqStepFinalRange = 0x80
	seqStepsRanging   = seqStepDSS | seqStepPreRange | seqStepFinalRange

	seqStepVHV   = 0x01
	seqStepPhase = 0x02

	rangeInvalid = 8191
)

// SPAD reference array geometry
const (
	SpadMapRows           = 6
	spadRowSize           = 8
	spadMaxCount          = 44
	spadApertureStart     = 12
	spadStartSelect       = 0xB4
	spadRequestedRefCount = 0x2C
)

// regWrite is one register/value pair of a fixed sequence
type regWrite struct {
	reg uint8
	val uint8
}

var (
	// enter the page holding the stop variable
	stopVariableEnter = [...]regWrite{
		{regPowerManagement, 0x01},
		{regPageSelect, 0x01},
		{regSysrangeStart, 0x00},
	}
	stopVariableLeave = [...]regWrite{
		{regSysrangeStart, 0x01},
		{regPageSelect, 0x00},
		{regPowerManagement, 0x00},
	}

	nvmEnter = [...]regWrite{
		{regPowerManagement, 0x01},
		{regPageSelect, 0x01},
		{regSysrangeStart, 0x00},
		{regPageSelect, 0x06},
	}
	nvmSelect = [...]regWrite{
		{regPageSelect, 0x07},
		{regInternalTuning, 0x01},
		{regPowerManagement, 0x01},
		{regNVMCommand, nvmSpadInfo},
	}
	nvmLeave = [...]regWrite{
		{regInternalTuning, 0x00},
		{regPageSelect, 0x06},
	}
	nvmRestore = [...]regWrite{
		{regPageSelect, 0x01},
		{regSysrangeStart, 0x01},
		{regPageSelect, 0x00},
		{regPowerManagement, 0x00},
	}

	spadReference = [...]regWrite{
		{regPageSelect, 0x01},
		{regDynamicSpadRefEnStart, 0x00},
		{regDynamicSpadNumRequested, spadRequestedRefCount},
		{regPageSelect, 0x00},
		{regGlobalConfigRefEnStart, spadStartSelect},
	}
)
