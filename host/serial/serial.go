// Package serial opens the USB CDC link that carries the firmware's report
// stream.
package serial

import (
	"io"
	"time"
)

// Port is the byte stream a HostTransport reads frames from
type Port interface {
	io.ReadWriteCloser

	// Flush discards buffered input so decoding starts on a fresh frame
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path, e.g. "/dev/ttyACM0"
	Device string `yaml:"device"`

	// Baud rate. USB CDC ignores it but tarm/serial requires one.
	Baud int `yaml:"baud"`

	// ReadTimeout bounds a single Read; zero blocks
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// DefaultConfig returns the settings used by the rp2040 firmware
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}
