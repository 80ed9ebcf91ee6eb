package vl53l0x

// spadInfo reads the reference SPAD count and type from NVM and the good
// SPAD map from the enable registers. The enable registers only hold the
// good map until the first SPAD write.
func (d *device) spadInfo() (count uint8, aperture bool, good [SpadMapRows]byte, err error) {
	if err = d.writeSeq(nvmEnter[:]); err != nil {
		return
	}
	if err = d.setBits(regNVMStrobe, nvmStrobeEnable, 0); err != nil {
		return
	}
	if err = d.writeSeq(nvmSelect[:]); err != nil {
		return
	}
	if err = d.strobe(); err != nil {
		return
	}
	v, err := d.i2c.Read32(regNVMData)
	if err != nil {
		return
	}
	count = uint8(v>>8) & 0x7F
	aperture = (v>>15)&0x01 == 1

	if err = d.writeSeq(nvmLeave[:]); err != nil {
		return
	}
	if err = d.setBits(regNVMStrobe, 0, nvmStrobeEnable); err != nil {
		return
	}
	if err = d.writeSeq(nvmRestore[:]); err != nil {
		return
	}
	err = d.i2c.ReadBlock(regGlobalConfigSpadEnables, good[:])
	return
}

// strobe latches the selected NVM word into the data registers
func (d *device) strobe() error {
	if err := d.i2c.Write8(regNVMStrobe, 0x00); err != nil {
		return err
	}
	if err := d.pollUntil(regNVMStrobe, 0xFF, true); err != nil {
		return err
	}
	return d.i2c.Write8(regNVMStrobe, 0x01)
}

// SelectSpads picks the first count good SPADs of the requested type.
// Aperture SPADs start at index 12; the array holds 44 SPADs.
func SelectSpads(count uint8, aperture bool, good [SpadMapRows]byte) ([SpadMapRows]byte, error) {
	var enabled [SpadMapRows]byte
	if count > spadMaxCount {
		return enabled, errSpadShortage
	}

	first := 0
	if aperture {
		first = spadApertureStart
	}
	var n uint8
	for i := first; i < spadMaxCount && n < count; i++ {
		row, col := i/spadRowSize, uint(i%spadRowSize)
		if good[row]>>col&0x01 != 0 {
			enabled[row] |= 1 << col
			n++
		}
	}
	if n != count {
		return enabled, errSpadShortage
	}
	return enabled, nil
}

// setSpads writes the reference SPAD selection derived from NVM
func (d *device) setSpads() error {
	count, aperture, good, err := d.spadInfo()
	if err != nil {
		return err
	}
	if err := d.writeSeq(spadReference[:]); err != nil {
		return err
	}
	enabled, err := SelectSpads(count, aperture, good)
	if err != nil {
		return err
	}
	if err := d.i2c.WriteBlock(regGlobalConfigSpadEnables, enabled[:]); err != nil {
		return err
	}
	d.calib = CalibrationData{SpadCount: count, SpadAperture: aperture, Enabled: enabled}
	return nil
}
