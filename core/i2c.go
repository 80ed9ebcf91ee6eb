package core

// I2CDevice addresses one target on a shared bus and provides the
// fixed-width register accessors used by sensor drivers.
type I2CDevice struct {
	Bus     I2CBus
	Address I2CAddress
	buf     [4]byte
}

// NewI2CDevice binds a bus to a target address
func NewI2CDevice(bus I2CBus, addr I2CAddress) *I2CDevice {
	return &I2CDevice{Bus: bus, Address: addr}
}

// Read8 reads an 8-bit register
func (d *I2CDevice) Read8(reg uint8) (uint8, error) {
	if err := d.Bus.ReadRegister(d.Address, reg, d.buf[:1]); err != nil {
		return 0, err
	}
	return d.buf[0], nil
}

// Read16 reads a 16-bit big-endian register
func (d *I2CDevice) Read16(reg uint8) (uint16, error) {
	if err := d.Bus.ReadRegister(d.Address, reg, d.buf[:2]); err != nil {
		return 0, err
	}
	return uint16(d.buf[0])<<8 | uint16(d.buf[1]), nil
}

// Read32 reads a 32-bit big-endian register
func (d *I2CDevice) Read32(reg uint8) (uint32, error) {
	if err := d.Bus.ReadRegister(d.Address, reg, d.buf[:4]); err != nil {
		return 0, err
	}
	return uint32(d.buf[0])<<24 | uint32(d.buf[1])<<16 | uint32(d.buf[2])<<8 | uint32(d.buf[3]), nil
}

// Write8 writes an 8-bit register
func (d *I2CDevice) Write8(reg, value uint8) error {
	d.buf[0] = value
	return d.Bus.WriteRegister(d.Address, reg, d.buf[:1])
}

// ReadBlock reads len(out) consecutive bytes starting at reg
func (d *I2CDevice) ReadBlock(reg uint8, out []byte) error {
	return d.Bus.ReadRegister(d.Address, reg, out)
}

// WriteBlock writes data to consecutive registers starting at reg
func (d *I2CDevice) WriteBlock(reg uint8, data []byte) error {
	return d.Bus.WriteRegister(d.Address, reg, data)
}
