package protocol

import "sync/atomic"

// Transport frames outgoing messages into an OutputBuffer. The firmware
// drains the buffer to its serial link from the main loop.
type Transport struct {
	nextSequence uint32 // atomic, 0x10-0x1F
	output       OutputBuffer
	dropped      uint32 // atomic, frames that did not fit
	flush        func()
}

// NewTransport creates a Transport writing to output
func NewTransport(output OutputBuffer) *Transport {
	return &Transport{
		nextSequence: MessageDest,
		output:       output,
	}
}

// EncodeFrame writes one frame whose payload is produced by frameData.
// Frames longer than MessageLengthMax are discarded and counted.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()

	seq := uint8(atomic.LoadUint32(&t.nextSequence))
	t.output.Output([]byte{0, seq})

	frameData(t.output)

	changed := len(t.output.DataSince(cursor))
	if changed+MessageTrailerSize > MessageLengthMax || changed+MessageTrailerSize > MessageMax-cursor {
		t.output.Truncate(cursor)
		atomic.AddUint32(&t.dropped, 1)
		return
	}
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})

	atomic.StoreUint32(&t.nextSequence, uint32(((seq+1)&MessageSeqMask)|MessageDest))

	if t.flush != nil {
		t.flush()
	}
}

// SendMessage sends a message with arguments
func (t *Transport) SendMessage(msgID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(msgID))
		if args != nil {
			args(output)
		}
	})
}

// Dropped returns the number of frames discarded for size
func (t *Transport) Dropped() uint32 {
	return atomic.LoadUint32(&t.dropped)
}

// Reset restarts the sequence (after a host reconnect)
func (t *Transport) Reset() {
	atomic.StoreUint32(&t.nextSequence, MessageDest)
}

// SetFlushCallback sets a callback run after every complete frame
func (t *Transport) SetFlushCallback(callback func()) {
	t.flush = callback
}
