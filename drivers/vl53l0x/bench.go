package vl53l0x

import "sumobot/core"

// BenchMode selects one of the bring-up test loops
type BenchMode uint8

const (
	BenchOff BenchMode = iota
	BenchIdentify
	BenchScratch
	BenchSingle
	BenchMulti
)

func (m BenchMode) String() string {
	switch m {
	case BenchIdentify:
		return "identify"
	case BenchScratch:
		return "scratch"
	case BenchSingle:
		return "single"
	case BenchMulti:
		return "multi"
	default:
		return "off"
	}
}

// ParseBenchMode returns the mode named by s
func ParseBenchMode(s string) (BenchMode, bool) {
	for m := BenchIdentify; m <= BenchMulti; m++ {
		if m.String() == s {
			return m, true
		}
	}
	return BenchOff, false
}

const (
	scratchReg = regSystemSequenceConfig
	scratchVal = 0xAB
)

// PowerOne holds every sensor in standby except pos, which is released and
// left on the factory address
func PowerOne(gpio core.GPIODriver, reg Registry, pos Position, delayMS uint32) error {
	for i, sc := range reg {
		if err := gpio.ConfigureOutput(sc.XShut); err != nil {
			return err
		}
		if Position(i) == pos {
			if err := gpio.SetPin(sc.XShut, true); err != nil {
				return err
			}
		}
	}
	core.Delay(delayMS)
	return nil
}

// IdentifyStep reads the model id at the factory address and describes the
// outcome
func IdentifyStep(bus core.I2CBus) string {
	d := core.I2CDevice{Bus: bus, Address: DefaultAddress}
	id, err := d.Read8(regModelID)
	switch {
	case err != nil:
		return "I2C error: " + err.Error()
	case id == ModelID:
		return "Read expected VL53L0X ID (0x" + core.Hex8(ModelID) + ")"
	default:
		return "Read unexpected VL53L0X ID 0x" + core.Hex8(id) + " (expected 0x" + core.Hex8(ModelID) + ")"
	}
}

// ScratchStep writes a known value to a writable register and reads it back
func ScratchStep(bus core.I2CBus) string {
	d := core.I2CDevice{Bus: bus, Address: DefaultAddress}
	if err := d.Write8(scratchReg, scratchVal); err != nil {
		return "I2C error: " + err.Error()
	}
	v, err := d.Read8(scratchReg)
	switch {
	case err != nil:
		return "I2C error: " + err.Error()
	case v == scratchVal:
		return "Read back expected value 0x" + core.Hex8(scratchVal)
	default:
		return "Read back 0x" + core.Hex8(v) + " (expected 0x" + core.Hex8(scratchVal) + ")"
	}
}

// RangeLine formats one single-sensor reading
func RangeLine(mm uint16, err error) string {
	switch {
	case err != nil:
		return "Range measure failed: " + err.Error()
	case mm == OutOfRange:
		return "Out of range"
	default:
		return "Range " + core.Utoa(uint32(mm)) + " mm"
	}
}

// MultiLine formats one ReadMulti result
func MultiLine(ranges [NumPositions]uint16, fresh bool, err error) string {
	if err != nil {
		return "Range measure failed: " + err.Error()
	}
	line := ""
	for i, mm := range ranges {
		if i > 0 {
			line += " "
		}
		line += Position(i).String() + "="
		if mm == OutOfRange {
			line += "--"
		} else {
			line += core.Utoa(uint32(mm))
		}
	}
	if !fresh {
		line += " (stale)"
	}
	return line
}
