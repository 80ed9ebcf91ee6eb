// Package mcu follows the report stream of a connected sensing firmware and
// keeps the latest state it announced.
package mcu

import (
	"fmt"
	"io"
	"sync"
	"time"

	"sumobot/host/serial"
	"sumobot/protocol"
)

// Report is one decoded frame together with its stream sequence
type Report struct {
	ID       uint16
	Sequence uint8
	Msg      any // *protocol.RangeReport, *protocol.Trace, ...
}

// MCU represents a connection to the firmware
type MCU struct {
	transport *protocol.HostTransport

	mu         sync.Mutex
	version    string
	initResult *protocol.InitResult
	last       *protocol.RangeReport
	decodeErrs uint64

	hello   chan struct{}
	helloMu sync.Once

	connected bool
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{hello: make(chan struct{})}
}

// Connect opens device with the default serial settings
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens the serial port described by cfg
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return fmt.Errorf("flush %s: %w", cfg.Device, err)
	}
	m.Attach(port)
	return nil
}

// Attach starts decoding frames read from port
func (m *MCU) Attach(port io.ReadCloser) {
	m.transport = protocol.NewHostTransport(port)
	m.connected = true
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	if m.transport != nil {
		if err := m.transport.Close(); err != nil {
			return err
		}
	}
	m.connected = false
	return nil
}

// Next blocks for the next decoded report. Frames with an unknown id or a
// malformed payload are counted and skipped.
func (m *MCU) Next(timeout time.Duration) (*Report, error) {
	if !m.connected {
		return nil, fmt.Errorf("not connected to MCU")
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("no report within %v", timeout)
		}
		frame, err := m.transport.Receive(remaining)
		if err != nil {
			return nil, err
		}

		id, msg, err := protocol.ParsePayload(frame.Payload)
		if err != nil {
			m.mu.Lock()
			m.decodeErrs++
			m.mu.Unlock()
			continue
		}
		m.track(msg)
		return &Report{ID: id, Sequence: frame.Sequence, Msg: msg}, nil
	}
}

func (m *MCU) track(msg any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch v := msg.(type) {
	case *protocol.Hello:
		m.version = v.Version
		m.helloMu.Do(func() { close(m.hello) })
	case *protocol.InitResult:
		m.initResult = v
	case *protocol.RangeReport:
		m.last = v
	}
}

// Hello is closed once the firmware has announced its version
func (m *MCU) Hello() <-chan struct{} {
	return m.hello
}

// Version returns the stream version the firmware announced
func (m *MCU) Version() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// InitResult returns the last bring-up outcome seen, or nil
func (m *MCU) InitResult() *protocol.InitResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initResult
}

// LastRanges returns the last range report seen, or nil
func (m *MCU) LastRanges() *protocol.RangeReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Health returns the transport counters and the payload decode failures
func (m *MCU) Health() (protocol.Stats, uint64) {
	m.mu.Lock()
	decodeErrs := m.decodeErrs
	m.mu.Unlock()
	if m.transport == nil {
		return protocol.Stats{}, decodeErrs
	}
	return m.transport.Stats(), decodeErrs
}
