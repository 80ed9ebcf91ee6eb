package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// maxVLQLen is the longest encoding of a uint32
const maxVLQLen = 5

// EncodeVLQUint writes v as 7-bit groups, most significant first, with the
// high bit set on every byte but the last
func EncodeVLQUint(output OutputBuffer, v uint32) {
	var buf [maxVLQLen]byte
	i := len(buf) - 1
	buf[i] = byte(v & 0x7F)
	for v >>= 7; v != 0; v >>= 7 {
		i--
		buf[i] = byte(v&0x7F) | 0x80
	}
	output.Output(buf[i:])
}

// DecodeVLQUint reads one value and advances data past it
func DecodeVLQUint(data *[]byte) (uint32, error) {
	var v uint32
	for n := 0; ; n++ {
		if len(*data) == 0 {
			return 0, ErrBufferTooSmall
		}
		if n == maxVLQLen || v >= 1<<25 {
			return 0, ErrInvalidVLQ
		}
		c := (*data)[0]
		*data = (*data)[1:]
		v = v<<7 | uint32(c&0x7F)
		if c&0x80 == 0 {
			return v, nil
		}
	}
}

// EncodeVLQString writes a length-prefixed string cut to max bytes
func EncodeVLQString(output OutputBuffer, s string, max int) {
	if len(s) > max {
		s = s[:max]
	}
	EncodeVLQUint(output, uint32(len(s)))
	output.Output([]byte(s))
}

// DecodeVLQString reads a length-prefixed string
func DecodeVLQString(data *[]byte) (string, error) {
	n, err := DecodeVLQUint(data)
	if err != nil {
		return "", err
	}
	if uint32(len(*data)) < n {
		return "", ErrBufferTooSmall
	}
	s := string((*data)[:n])
	*data = (*data)[n:]
	return s, nil
}
