package protocol

// crcTable holds CRC-16/MCRF4XX remainders (reflected 0x1021, init 0xFFFF)
var crcTable = func() (t [256]uint16) {
	for i := range t {
		c := uint16(i)
		for b := 0; b < 8; b++ {
			if c&1 != 0 {
				c = c>>1 ^ 0x8408
			} else {
				c >>= 1
			}
		}
		t[i] = c
	}
	return t
}()

// CRC16 is the checksum over a frame's header and payload
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = crc>>8 ^ crcTable[byte(crc)^b]
	}
	return crc
}
