package core

// String helpers for firmware trace lines, which avoid fmt

const hexDigits = "0123456789abcdef"

// Utoa formats n in decimal
func Utoa(n uint32) string {
	var buf [10]byte
	pos := len(buf)
	for {
		pos--
		buf[pos] = hexDigits[n%10]
		n /= 10
		if n == 0 {
			return string(buf[pos:])
		}
	}
}

// Hex8 formats a byte as two lowercase hex digits
func Hex8(v uint8) string {
	return string([]byte{hexDigits[v>>4], hexDigits[v&0x0f]})
}
