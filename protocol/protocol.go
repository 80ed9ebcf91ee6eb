// Package protocol implements the framed report stream the firmware sends to
// the host: VLQ-encoded messages inside length/sequence/CRC16 frames.
package protocol

// Version is the report stream version sent in the hello message
const Version = "0.1.0"

// Frame layout: [len][seq][payload...][crc hi][crc lo][sync]
const (
	MessageMax         = 512 // scratch buffer size, holds several frames
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	MessageSeqMask = 0x0F
)

// Message is a frame received by the host
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // frame data without header/trailer
	CRC      uint16
}
