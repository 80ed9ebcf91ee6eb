package core

import "errors"

// I2CPhase names the stage of a transfer
type I2CPhase uint8

const (
	PhaseStart I2CPhase = iota // START condition and address acknowledge
	PhaseTx                    // transmitted byte
	PhaseRx                    // received byte
	PhaseStop                  // STOP condition
)

func (p I2CPhase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseTx:
		return "tx"
	case PhaseRx:
		return "rx"
	case PhaseStop:
		return "stop"
	default:
		return "unknown"
	}
}

var (
	ErrBusTimeout = errors.New("i2c timeout")
	ErrBusNack    = errors.New("i2c nack")
)

// BusError reports a failed transfer. Timeout is false for a NACK.
type BusError struct {
	Addr    I2CAddress
	Phase   I2CPhase
	Timeout bool
	Err     error // underlying driver error, if any
}

func (e *BusError) Error() string {
	kind := "nack"
	if e.Timeout {
		kind = "timeout"
	}
	msg := "i2c " + kind + " in " + e.Phase.String() + " phase (addr 0x" + Hex8(uint8(e.Addr)) + ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrBusTimeout or ErrBusNack
func (e *BusError) Is(target error) bool {
	switch target {
	case ErrBusTimeout:
		return e.Timeout
	case ErrBusNack:
		return !e.Timeout
	}
	return false
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// DefaultI2CRetries is the per-phase poll budget. It has to be large enough
// for the controller to finish clocking a byte at 100kHz.
const DefaultI2CRetries = 65535

// BusConfig configures a polled Bus
type BusConfig struct {
	// Retries bounds every polled phase. Zero selects DefaultI2CRetries.
	Retries uint32
}

type busCond uint8

const (
	condStartPending busCond = iota
	condTxBusy
	condRxEmpty
	condStopPending
)

// Bus is a synchronous I2C master that polls an I2CController.
// It implements I2CBus.
type Bus struct {
	ctl     I2CController
	retries uint32
}

// NewBus creates a polled bus on top of a controller
func NewBus(ctl I2CController, cfg BusConfig) *Bus {
	if cfg.Retries == 0 {
		cfg.Retries = DefaultI2CRetries
	}
	return &Bus{ctl: ctl, retries: cfg.Retries}
}

// ReadRegister sends reg, then reads len(out) bytes after a repeated START.
// The STOP is requested before the final byte is collected.
func (b *Bus) ReadRegister(addr I2CAddress, reg uint8, out []byte) error {
	if len(out) == 0 {
		return nil
	}
	b.ctl.SetTarget(addr)
	if err := b.begin(addr, reg); err != nil {
		return b.fail(err)
	}

	b.ctl.Start(I2CReceive)
	if err := b.check(addr, PhaseStart, condStartPending); err != nil {
		return b.fail(err)
	}

	last := len(out) - 1
	for i := 0; i < last; i++ {
		if err := b.check(addr, PhaseRx, condRxEmpty); err != nil {
			return b.fail(err)
		}
		out[i] = b.ctl.ReadByte()
	}

	b.ctl.Stop()
	if err := b.check(addr, PhaseStop, condStopPending); err != nil {
		return b.fail(err)
	}

	if err := b.check(addr, PhaseRx, condRxEmpty); err != nil {
		return b.fail(err)
	}
	out[last] = b.ctl.ReadByte()
	return nil
}

// WriteRegister sends reg followed by data, then a STOP. Controllers that
// queue bytes may only see the NACK of the address or the last byte once the
// STOP has gone out; it is reported in the stop phase.
func (b *Bus) WriteRegister(addr I2CAddress, reg uint8, data []byte) error {
	b.ctl.SetTarget(addr)
	if err := b.begin(addr, reg); err != nil {
		return b.fail(err)
	}
	for _, v := range data {
		b.ctl.WriteByte(v)
		if err := b.check(addr, PhaseTx, condTxBusy); err != nil {
			return b.fail(err)
		}
	}

	b.ctl.Stop()
	if err := b.check(addr, PhaseStop, condStopPending); err != nil {
		return b.fail(err)
	}
	return nil
}

// begin issues START in transmit mode and sends the register byte
func (b *Bus) begin(addr I2CAddress, reg uint8) error {
	b.ctl.Start(I2CTransmit)
	b.ctl.WriteByte(reg)
	if err := b.check(addr, PhaseStart, condStartPending); err != nil {
		return err
	}
	return b.check(addr, PhaseTx, condTxBusy)
}

// check waits for cond to clear, then looks for a NACK
func (b *Bus) check(addr I2CAddress, phase I2CPhase, cond busCond) error {
	if err := b.waitFor(addr, phase, cond); err != nil {
		return err
	}
	if b.ctl.Nacked() {
		return &BusError{Addr: addr, Phase: phase}
	}
	return nil
}

// waitFor polls cond at most b.retries times. A NACK ends the wait, since
// an aborted transfer never delivers the byte being waited for.
func (b *Bus) waitFor(addr I2CAddress, phase I2CPhase, cond busCond) error {
	for n := b.retries; b.busy(cond); {
		if b.ctl.Nacked() {
			return &BusError{Addr: addr, Phase: phase}
		}
		n--
		if n == 0 {
			return &BusError{Addr: addr, Phase: phase, Timeout: true}
		}
	}
	return nil
}

func (b *Bus) busy(cond busCond) bool {
	switch cond {
	case condStartPending:
		return b.ctl.StartPending()
	case condTxBusy:
		return !b.ctl.TxReady()
	case condRxEmpty:
		return !b.ctl.RxReady()
	default:
		return b.ctl.StopPending()
	}
}

// fail releases the bus and records the error. The transfer is not resumed.
func (b *Bus) fail(err error) error {
	b.ctl.Stop()
	var be *BusError
	if errors.As(err, &be) {
		kind := uint32(0)
		if be.Timeout {
			kind = 1
		}
		RecordEvent(EvtBusError, uint8(be.Addr), uint32(be.Phase), kind)
	}
	return err
}
