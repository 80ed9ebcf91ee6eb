//go:build rp2040

package main

import "machine"

// InitUSB configures the USB CDC port that carries the report stream
func InitUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// USBWriteBytes writes as much of data as the CDC endpoint accepts
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}

// USBDrainInput discards host input; the stream is one-way
func USBDrainInput() {
	for machine.Serial.Buffered() > 0 {
		machine.Serial.ReadByte()
	}
}
