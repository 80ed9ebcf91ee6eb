package vl53l0x

import (
	"time"

	"sumobot/core"
)

var (
	testXShut = [NumPositions]core.GPIOPin{10, 11, 12}
	testIRQ   = [NumPositions]core.GPIOPin{20, 21, 22}
)

// MockGPIODriver is a GPIO driver whose XSHUT lines gate simulated sensors
type MockGPIODriver struct {
	modes    map[core.GPIOPin]core.PinMode
	levels   map[core.GPIOPin]bool
	handlers map[core.GPIOPin]func()
	enabled  map[core.GPIOPin]bool
	onSet    func(pin core.GPIOPin, high bool)
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		modes:    make(map[core.GPIOPin]core.PinMode),
		levels:   make(map[core.GPIOPin]bool),
		handlers: make(map[core.GPIOPin]func()),
		enabled:  make(map[core.GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	m.modes[pin] = core.PinOutputLow
	m.levels[pin] = false
	return nil
}

func (m *MockGPIODriver) ConfigureInput(pin core.GPIOPin) error {
	m.modes[pin] = core.PinInput
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	m.modes[pin] = core.PinInputPullUp
	return nil
}

func (m *MockGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	m.levels[pin] = value
	if m.modes[pin].IsOutput() {
		if value {
			m.modes[pin] = core.PinOutputHigh
		} else {
			m.modes[pin] = core.PinOutputLow
		}
	}
	if m.onSet != nil {
		m.onSet(pin, value)
	}
	return nil
}

func (m *MockGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return m.levels[pin], nil
}

func (m *MockGPIODriver) PinMode(pin core.GPIOPin) core.PinMode {
	return m.modes[pin]
}

func (m *MockGPIODriver) SetFallingEdgeIRQ(pin core.GPIOPin, handler func()) error {
	m.handlers[pin] = handler
	return nil
}

func (m *MockGPIODriver) EnableIRQ(pin core.GPIOPin) error {
	m.enabled[pin] = true
	return nil
}

func (m *MockGPIODriver) DisableIRQ(pin core.GPIOPin) error {
	m.enabled[pin] = false
	return nil
}

// fire delivers a falling edge on pin
func (m *MockGPIODriver) fire(pin core.GPIOPin) {
	if h := m.handlers[pin]; h != nil && m.enabled[pin] {
		h()
	}
}

// simSensor models the registers of one VL53L0X that the driver touches
type simSensor struct {
	id       uint8
	addr     core.I2CAddress
	awake    bool
	dead     bool
	wakes    int
	page     uint8
	regs     [256]byte
	stop     uint8
	spadInfo uint32
	good     [SpadMapRows]byte
	enabled  [SpadMapRows]byte
	spadSet  bool
	rangeMM  uint16
	sample   bool
	irq      core.GPIOPin

	stuckStrobe bool
	stopWrites  []uint8
	starts      int
}

func (s *simSensor) wake() {
	s.wakes++
	s.awake = !s.dead
	s.addr = DefaultAddress
	s.page = 0
}

func (s *simSensor) read(reg uint8) byte {
	switch {
	case reg == regModelID:
		return s.id
	case reg == regNVMStrobe:
		if s.stuckStrobe {
			return 0
		}
		return s.regs[reg] | 0x10
	case reg >= regNVMData && reg < regNVMData+4 && s.page == 0x07:
		return byte(s.spadInfo >> (24 - 8*uint(reg-regNVMData)))
	case reg == regStopVariable:
		return s.stop
	case reg >= regGlobalConfigSpadEnables && reg < regGlobalConfigSpadEnables+SpadMapRows:
		if s.spadSet {
			return s.enabled[reg-regGlobalConfigSpadEnables]
		}
		return s.good[reg-regGlobalConfigSpadEnables]
	case reg == regResultInterruptStatus:
		if s.sample {
			return interruptNewSampleReady
		}
		return 0
	case reg == regResultRange:
		return byte(s.rangeMM >> 8)
	case reg == regResultRange+1:
		return byte(s.rangeMM)
	case reg == regSysrangeStart:
		return 0
	}
	return s.regs[reg]
}

// write returns true when the write started a measurement
func (s *simSensor) write(reg, v uint8) bool {
	switch {
	case reg == regPageSelect:
		s.page = v
	case reg == regI2CSlaveDeviceAddress:
		s.addr = core.I2CAddress(v & 0x7F)
	case reg == regSystemInterruptClear:
		if v&0x01 != 0 {
			s.sample = false
		}
	case reg == regSysrangeStart && s.page == 0:
		if v&sysrangeStartSingle != 0 {
			s.starts++
			s.sample = true
			return true
		}
	case reg == regStopVariable && s.page == 0x01:
		s.stopWrites = append(s.stopWrites, v)
	case reg >= regGlobalConfigSpadEnables && reg < regGlobalConfigSpadEnables+SpadMapRows:
		s.enabled[reg-regGlobalConfigSpadEnables] = v
		s.spadSet = true
	default:
		s.regs[reg] = v
	}
	return false
}

// simBus routes transfers to the awake sensor at an address
type simBus struct {
	sensors   []*simSensor
	gpio      *MockGPIODriver
	autoFire  bool
	ops       int
	collision bool
	fail      func(addr core.I2CAddress, reg uint8, write bool) error
}

func (b *simBus) lookup(addr core.I2CAddress) (*simSensor, error) {
	var found *simSensor
	for _, s := range b.sensors {
		if s.awake && s.addr == addr {
			if found != nil {
				b.collision = true
			}
			found = s
		}
	}
	if found == nil {
		return nil, &core.BusError{Addr: addr, Phase: core.PhaseStart}
	}
	return found, nil
}

func (b *simBus) ReadRegister(addr core.I2CAddress, reg uint8, out []byte) error {
	b.ops++
	if b.fail != nil {
		if err := b.fail(addr, reg, false); err != nil {
			return err
		}
	}
	s, err := b.lookup(addr)
	if err != nil {
		return err
	}
	for i := range out {
		out[i] = s.read(reg + uint8(i))
	}
	return nil
}

func (b *simBus) WriteRegister(addr core.I2CAddress, reg uint8, data []byte) error {
	b.ops++
	if b.fail != nil {
		if err := b.fail(addr, reg, true); err != nil {
			return err
		}
	}
	s, err := b.lookup(addr)
	if err != nil {
		return err
	}
	for i, v := range data {
		if s.write(reg+uint8(i), v) && b.autoFire {
			b.gpio.fire(s.irq)
		}
	}
	return nil
}

type rig struct {
	gpio *MockGPIODriver
	bus  *simBus
	sim  [NumPositions]*simSensor
	s    *Sensors
}

func newRig(cfg Config) *rig {
	g := NewMockGPIODriver()
	b := &simBus{gpio: g, autoFire: true}
	r := &rig{gpio: g, bus: b}
	for i := range r.sim {
		sen := &simSensor{
			id:       ModelID,
			stop:     uint8(0x11 * (i + 1)),
			spadInfo: 5 << 8,
			good:     [SpadMapRows]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x0F},
			rangeMM:  uint16(100 * (i + 1)),
			irq:      testIRQ[i],
		}
		sen.regs[regGPIOHVMuxActiveHigh] = 0x11
		r.sim[i] = sen
		b.sensors = append(b.sensors, sen)
		g.ConfigureOutput(testXShut[i])
		g.ConfigureInput(testIRQ[i])
	}
	g.onSet = func(pin core.GPIOPin, high bool) {
		for i, p := range testXShut {
			if p != pin {
				continue
			}
			if high {
				r.sim[i].wake()
			} else {
				r.sim[i].awake = false
			}
		}
	}

	cfg.Sensors = NewRegistry(testXShut, testIRQ)
	if cfg.BootDelay == 0 {
		cfg.BootDelay = time.Millisecond
	}
	if cfg.StatusPolls == 0 {
		cfg.StatusPolls = 20
	}
	r.s = New(b, g, cfg)
	return r
}

// fireAll delivers the completion edge of every sensor
func (r *rig) fireAll() {
	for _, p := range testIRQ {
		r.gpio.fire(p)
	}
}
