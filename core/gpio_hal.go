package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// PinMode is the configuration a driver last applied to a pin.
type PinMode uint8

const (
	PinUnconfigured PinMode = iota
	PinOutputLow
	PinOutputHigh
	PinInput
	PinInputPullUp
	PinInputPullDown
)

// String returns a short name for the mode
func (m PinMode) String() string {
	switch m {
	case PinOutputLow:
		return "output-low"
	case PinOutputHigh:
		return "output-high"
	case PinInput:
		return "input"
	case PinInputPullUp:
		return "input-pullup"
	case PinInputPullDown:
		return "input-pulldown"
	default:
		return "unconfigured"
	}
}

// IsOutput reports whether the mode drives the pin
func (m PinMode) IsOutput() bool {
	return m == PinOutputLow || m == PinOutputHigh
}

// IsInput reports whether the mode samples the pin
func (m PinMode) IsInput() bool {
	return m == PinInput || m == PinInputPullUp || m == PinInputPullDown
}

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output driven low
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInput configures a pin as a floating digital input
	ConfigureInput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)

	// PinMode returns the current configuration of a pin
	PinMode(pin GPIOPin) PinMode

	// SetFallingEdgeIRQ binds handler to the pin's falling edge. The handler
	// runs in interrupt context. Binding does not enable the interrupt.
	SetFallingEdgeIRQ(pin GPIOPin, handler func()) error

	// EnableIRQ arms the interrupt bound to pin
	EnableIRQ(pin GPIOPin) error

	// DisableIRQ disarms the interrupt bound to pin, keeping the binding
	DisableIRQ(pin GPIOPin) error
}

// Global singleton used by core code.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
