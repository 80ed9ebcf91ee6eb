package protocol

import (
	"bytes"
	"testing"
)

func TestVLQUint(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x81, 0x00}},
		{8190, []byte{0xBF, 0x7E}},
		{1 << 21, []byte{0x81, 0x80, 0x80, 0x00}},
		{0xFFFFFFFF, []byte{0x8F, 0xFF, 0xFF, 0xFF, 0x7F}},
	}

	for _, tt := range tests {
		out := NewScratchOutput()
		EncodeVLQUint(out, tt.v)
		if !bytes.Equal(out.Result(), tt.want) {
			t.Errorf("encode %d = % x, want % x", tt.v, out.Result(), tt.want)
		}

		data := out.Result()
		got, err := DecodeVLQUint(&data)
		if err != nil || got != tt.v {
			t.Errorf("decode %d = %d, %v", tt.v, got, err)
		}
		if len(data) != 0 {
			t.Errorf("decode %d left %d bytes", tt.v, len(data))
		}
	}
}

func TestVLQUintErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBufferTooSmall},
		{"truncated", []byte{0x81, 0x80}, ErrBufferTooSmall},
		{"too long", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, ErrInvalidVLQ},
		{"overflow", []byte{0x9F, 0xFF, 0xFF, 0xFF, 0x7F}, ErrInvalidVLQ},
	}
	for _, tt := range tests {
		data := tt.data
		if _, err := DecodeVLQUint(&data); err != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestVLQString(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQString(out, "front-left", MaxTraceLen)
	EncodeVLQString(out, "", MaxTraceLen)

	data := out.Result()
	for _, want := range []string{"front-left", ""} {
		got, err := DecodeVLQString(&data)
		if err != nil || got != want {
			t.Errorf("decoded %q, %v; want %q", got, err, want)
		}
	}
}

func TestVLQStringTruncated(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQString(out, "measurement ongoing", 11)

	data := out.Result()
	got, err := DecodeVLQString(&data)
	if err != nil || got != "measurement" {
		t.Errorf("decoded %q, %v", got, err)
	}

	short := []byte{0x05, 'a', 'b'}
	if _, err := DecodeVLQString(&short); err != ErrBufferTooSmall {
		t.Errorf("short string: got %v", err)
	}
}
