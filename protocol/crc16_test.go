package protocol

import "testing"

func TestCRC16(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", nil, 0xFFFF},
		{"check string", []byte("123456789"), 0x6F91},
		{"frame header", []byte{0x05, 0x10, 0x01, 0x02}, 0xD229},
	}
	for _, tt := range tests {
		if got := CRC16(tt.data); got != tt.want {
			t.Errorf("%s: CRC16 = 0x%04x, want 0x%04x", tt.name, got, tt.want)
		}
	}
}

func TestCRC16DetectsSingleBitFlips(t *testing.T) {
	frame := []byte{0x0A, 0x13, 0x03, 0x2A, 0x01, 0x03}
	want := CRC16(frame)
	for i := range frame {
		for bit := 0; bit < 8; bit++ {
			frame[i] ^= 1 << bit
			if CRC16(frame) == want {
				t.Errorf("flip of byte %d bit %d not detected", i, bit)
			}
			frame[i] ^= 1 << bit
		}
	}
}
