package core

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// I2CDirection selects the master's role for the bytes following a START.
type I2CDirection uint8

const (
	I2CTransmit I2CDirection = iota
	I2CReceive
)

// I2CController is the register-level master interface that the polled Bus
// drives. Every method must return immediately; the Bus does all waiting.
type I2CController interface {
	// SetTarget latches the 7-bit address used by the next START.
	SetTarget(addr I2CAddress)

	// Start generates a START (or a repeated START inside a transfer)
	// followed by the target address in the given direction.
	Start(dir I2CDirection)

	// StartPending reports whether the START/address phase is still in progress.
	StartPending() bool

	// Nacked reports whether the target NACKed since the last START.
	Nacked() bool

	// TxReady reports whether the transmit buffer can take another byte.
	TxReady() bool

	// WriteByte loads the transmit buffer.
	WriteByte(b byte)

	// RxReady reports whether a received byte is waiting.
	RxReady() bool

	// ReadByte takes the received byte.
	ReadByte() byte

	// Stop requests a STOP condition.
	Stop()

	// StopPending reports whether the requested STOP is still being generated.
	StopPending() bool
}

// I2CBus is the register-addressed transfer contract used by device drivers.
// Implementations are synchronous and must not be called from interrupt context.
type I2CBus interface {
	// ReadRegister reads len(out) bytes starting at reg. Bytes are stored in
	// wire order, most significant first.
	ReadRegister(addr I2CAddress, reg uint8, out []byte) error

	// WriteRegister writes data starting at reg, in ascending order.
	WriteRegister(addr I2CAddress, reg uint8, data []byte) error
}

// Global singleton used by core code.
var i2cBus I2CBus

// SetI2CBus is called by target-specific code to register its bus.
func SetI2CBus(b I2CBus) {
	i2cBus = b
}

// MustI2C returns the configured bus or panics if missing.
func MustI2C() I2CBus {
	if i2cBus == nil {
		panic("I2C bus not configured")
	}
	return i2cBus
}
