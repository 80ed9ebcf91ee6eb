// Package publish writes range readings to a Modbus TCP server as holding
// registers.
package publish

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"sumobot/drivers/vl53l0x"
)

// Register block written on every report, starting at Config.Address
const (
	RegCycleHigh = iota
	RegCycleLow
	RegFlags  // bit0 fresh, bit1 error
	RegAlerts // bit n set when position n is closer than its threshold
	RegRanges // NumPositions registers, millimetres

	BlockSize = RegRanges + vl53l0x.NumPositions
)

const (
	FlagFresh = 1 << 0
	FlagError = 1 << 1
)

type Config struct {
	Endpoint string
	UnitID   uint8
	Address  uint16
	Timeout  time.Duration
}

// Reading is one report to publish
type Reading struct {
	Cycle  uint32
	Fresh  bool
	Error  bool
	Alerts uint16
	Ranges [vl53l0x.NumPositions]uint16
}

// registerWriter is the subset of modbus.Client used here
type registerWriter interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Publisher holds one TCP connection and serializes writes on it
type Publisher struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  registerWriter
	address uint16
}

// Dial connects to the Modbus endpoint
func Dial(cfg Config) (*Publisher, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("publish: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Publisher{
		handler: h,
		client:  modbus.NewClient(h),
		address: cfg.Address,
	}, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handler == nil {
		return nil
	}
	return p.handler.Close()
}

// Publish writes the whole register block in one request
func (p *Publisher) Publish(r Reading) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	regs := r.registers()
	_, err := p.client.WriteMultipleRegisters(p.address, uint16(len(regs)), packRegisters(regs))
	return err
}

func (r Reading) registers() []uint16 {
	regs := make([]uint16, BlockSize)
	regs[RegCycleHigh] = uint16(r.Cycle >> 16)
	regs[RegCycleLow] = uint16(r.Cycle)
	if r.Fresh {
		regs[RegFlags] |= FlagFresh
	}
	if r.Error {
		regs[RegFlags] |= FlagError
	}
	regs[RegAlerts] = r.Alerts
	copy(regs[RegRanges:], r.Ranges[:])
	return regs
}

// Alerts returns the alert bitmap for ranges against per-position
// thresholds. A zero threshold disables the position.
func Alerts(ranges [vl53l0x.NumPositions]uint16, thresholds [vl53l0x.NumPositions]uint16) uint16 {
	var bits uint16
	for i, mm := range ranges {
		if thresholds[i] != 0 && mm < thresholds[i] {
			bits |= 1 << uint(i)
		}
	}
	return bits
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
