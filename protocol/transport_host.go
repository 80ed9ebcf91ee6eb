package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTransportClosed is returned once Close has been called
var ErrTransportClosed = errors.New("transport stopped")

// MessageHandler is called for every decoded frame, from the read loop
type MessageHandler func(msgID uint16, data *[]byte) error

// HostTransport reads frames from the firmware's serial link
type HostTransport struct {
	port io.ReadCloser

	isSynchronized uint32 // atomic bool
	expectedSeq    uint32 // atomic, next sequence expected
	seqValid       uint32 // atomic bool, expectedSeq was set by a frame

	// Stream health counters
	frames    uint64
	crcErrors uint64
	seqGaps   uint64

	inputBuffer  *frameBuffer
	messageChan  chan *Message
	handler      MessageHandler
	handlerMutex sync.RWMutex
	readMutex    sync.Mutex

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// Stats is a snapshot of the stream health counters
type Stats struct {
	Frames    uint64
	CRCErrors uint64
	SeqGaps   uint64
}

// NewHostTransport starts reading frames from port
func NewHostTransport(port io.ReadCloser) *HostTransport {
	t := &HostTransport{
		port:        port,
		inputBuffer: newFrameBuffer(1024),
		messageChan: make(chan *Message, 64),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
	atomic.StoreUint32(&t.isSynchronized, 1)

	go t.readLoop()

	return t
}

// SetMessageHandler sets a callback for decoded frames
func (t *HostTransport) SetMessageHandler(handler MessageHandler) {
	t.handlerMutex.Lock()
	t.handler = handler
	t.handlerMutex.Unlock()
}

// Receive returns the next frame or an error after timeout
func (t *HostTransport) Receive(timeout time.Duration) (*Message, error) {
	select {
	case msg := <-t.messageChan:
		return msg, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("no frame within %v", timeout)
	case <-t.stopChan:
		return nil, ErrTransportClosed
	}
}

// Done is closed when the read loop exits
func (t *HostTransport) Done() <-chan struct{} {
	return t.doneChan
}

// Stats returns the stream health counters
func (t *HostTransport) Stats() Stats {
	return Stats{
		Frames:    atomic.LoadUint64(&t.frames),
		CRCErrors: atomic.LoadUint64(&t.crcErrors),
		SeqGaps:   atomic.LoadUint64(&t.seqGaps),
	}
}

// readLoop continuously reads from the port and processes frames
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.Feed(buffer[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Feed processes raw bytes as if read from the port
func (t *HostTransport) Feed(raw []byte) {
	t.readMutex.Lock()
	defer t.readMutex.Unlock()

	for len(raw) > 0 {
		n := t.inputBuffer.Write(raw)
		raw = raw[n:]
		t.processMessages()
		if n == 0 && len(raw) > 0 {
			// frame larger than the buffer: drop and resync
			t.inputBuffer.Reset()
			t.setSynchronized(false)
		}
	}
}

// processMessages parses and dispatches frames from the input buffer
func (t *HostTransport) processMessages() {
	data := t.inputBuffer.Data()

	for len(data) > 0 {
		if !t.getSynchronized() {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}

			if syncPos >= 0 {
				data = data[syncPos+1:]
				t.setSynchronized(true)
			} else {
				data = nil
			}
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			t.setSynchronized(false)
			continue
		}

		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			t.setSynchronized(false)
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			atomic.AddUint64(&t.crcErrors, 1)
			t.setSynchronized(false)
			continue
		}

		seq := data[MessagePositionSeq]
		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		data = data[msgLen:]

		t.trackSequence(seq)
		atomic.AddUint64(&t.frames, 1)
		t.dispatchMessage(&Message{
			Length:   uint8(msgLen),
			Sequence: seq,
			Payload:  payload,
			CRC:      frameCRC,
		})
	}

	consumed := t.inputBuffer.Len() - len(data)
	if consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

// trackSequence counts frames lost between two received frames. A frame
// with sequence MessageDest after others is taken as a firmware restart.
func (t *HostTransport) trackSequence(seq uint8) {
	next := uint32(((seq + 1) & MessageSeqMask) | MessageDest)
	if atomic.SwapUint32(&t.seqValid, 1) == 0 {
		atomic.StoreUint32(&t.expectedSeq, next)
		return
	}
	expected := uint8(atomic.LoadUint32(&t.expectedSeq))
	if seq != expected && seq != MessageDest {
		atomic.AddUint64(&t.seqGaps, 1)
	}
	atomic.StoreUint32(&t.expectedSeq, next)
}

// dispatchMessage hands a frame to the handler and the receive channel
func (t *HostTransport) dispatchMessage(msg *Message) {
	t.handlerMutex.RLock()
	handler := t.handler
	t.handlerMutex.RUnlock()

	if handler != nil && len(msg.Payload) > 0 {
		payload := msg.Payload
		msgID, err := DecodeVLQUint(&payload)
		if err == nil {
			_ = handler(uint16(msgID), &payload)
		}
	}

	select {
	case t.messageChan <- msg:
	default:
		// drop the oldest frame
		select {
		case <-t.messageChan:
		default:
		}
		select {
		case t.messageChan <- msg:
		default:
		}
	}
}

// Close stops the read loop and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}

func (t *HostTransport) getSynchronized() bool {
	return atomic.LoadUint32(&t.isSynchronized) != 0
}

func (t *HostTransport) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&t.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&t.isSynchronized, 0)
	}
}
