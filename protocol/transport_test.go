package protocol

import (
	"io"
	"testing"
	"time"
)

func newTestHost(t *testing.T) *HostTransport {
	t.Helper()
	r, _ := io.Pipe()
	host := NewHostTransport(r)
	t.Cleanup(func() { host.Close() })
	return host
}

func receivePayload(t *testing.T, host *HostTransport) (uint16, any) {
	t.Helper()
	msg, err := host.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	id, v, err := ParsePayload(msg.Payload)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	return id, v
}

func TestTransportRangeReport(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)
	report := RangeReport{Cycle: 42, Fresh: true, Ranges: []uint16{120, 8190, 35}}
	tr.SendMessage(MsgRangeReport, report.Encode)

	frame := out.Result()
	if frame[MessagePositionLen] != uint8(len(frame)) {
		t.Errorf("length byte %d, frame is %d bytes", frame[MessagePositionLen], len(frame))
	}
	if frame[MessagePositionSeq] != MessageDest {
		t.Errorf("first sequence 0x%02x, want 0x%02x", frame[MessagePositionSeq], MessageDest)
	}
	if frame[len(frame)-1] != MessageValueSync {
		t.Error("frame does not end with the sync byte")
	}

	host := newTestHost(t)
	host.Feed(frame)

	id, v := receivePayload(t, host)
	got, ok := v.(*RangeReport)
	if id != MsgRangeReport || !ok {
		t.Fatalf("decoded %s %T", MessageName(id), v)
	}
	if got.Cycle != 42 || !got.Fresh || len(got.Ranges) != 3 || got.Ranges[1] != 8190 {
		t.Errorf("decoded %+v", got)
	}
}

func TestTransportMessages(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)

	initRes := InitResult{OK: false, Kind: 1, Position: 2, Step: "model id"}
	tr.SendMessage(MsgInitResult, initRes.Encode)
	rangeErr := RangeError{Kind: 2, Position: 1, Step: "range result"}
	tr.SendMessage(MsgRangeError, rangeErr.Encode)
	evt := Event{Type: 5, ID: 0, Clock: 123456, Value1: 7}
	tr.SendMessage(MsgEvent, evt.Encode)

	host := newTestHost(t)
	host.Feed(out.Result())

	if _, v := receivePayload(t, host); *v.(*InitResult) != initRes {
		t.Errorf("init result = %+v", v)
	}
	if _, v := receivePayload(t, host); *v.(*RangeError) != rangeErr {
		t.Errorf("range error = %+v", v)
	}
	if _, v := receivePayload(t, host); *v.(*Event) != evt {
		t.Errorf("event = %+v", v)
	}
}

func TestTransportSequenceWraps(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)
	host := newTestHost(t)

	for i := 0; i < 20; i++ {
		out.Reset()
		tr.SendMessage(MsgTrace, (&Trace{Text: "tick"}).Encode)
		frame := out.Result()
		want := uint8(MessageDest | (i & MessageSeqMask))
		if frame[MessagePositionSeq] != want {
			t.Fatalf("frame %d sequence 0x%02x, want 0x%02x", i, frame[MessagePositionSeq], want)
		}
		host.Feed(frame)
	}

	if st := host.Stats(); st.Frames != 20 || st.SeqGaps != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestHostTransportResync(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)
	tr.SendMessage(MsgTrace, (&Trace{Text: "one"}).Encode)
	first := append([]byte(nil), out.Result()...)
	out.Reset()
	tr.SendMessage(MsgTrace, (&Trace{Text: "two"}).Encode)
	second := append([]byte(nil), out.Result()...)

	first[len(first)-3] ^= 0xFF // corrupt the CRC

	host := newTestHost(t)
	host.Feed([]byte{0x00, 0x42, MessageValueSync})
	host.Feed(first)
	host.Feed(second)

	_, v := receivePayload(t, host)
	if tr, ok := v.(*Trace); !ok || tr.Text != "two" {
		t.Errorf("received %+v after resync", v)
	}
	if st := host.Stats(); st.CRCErrors != 1 || st.Frames != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestHostTransportCountsGaps(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)
	host := newTestHost(t)

	for i := 0; i < 4; i++ {
		out.Reset()
		tr.SendMessage(MsgTrace, (&Trace{Text: "x"}).Encode)
		if i == 2 {
			continue // lost on the wire
		}
		host.Feed(out.Result())
	}
	if st := host.Stats(); st.SeqGaps != 1 || st.Frames != 3 {
		t.Errorf("stats = %+v", st)
	}
}

func TestHostTransportHandler(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)
	tr.SendMessage(MsgHello, (&Hello{Version: Version}).Encode)

	host := newTestHost(t)
	var got string
	host.SetMessageHandler(func(msgID uint16, data *[]byte) error {
		var h Hello
		if msgID == MsgHello && h.Decode(data) == nil {
			got = h.Version
		}
		return nil
	})
	host.Feed(out.Result())

	if got != Version {
		t.Errorf("handler saw version %q", got)
	}
}

func TestTransportDropsOversizedFrame(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)
	tr.SendMessage(MsgTrace, (&Trace{Text: "ok"}).Encode)
	before := out.CurPosition()

	tr.SendMessage(MsgTrace, func(o OutputBuffer) {
		o.Output(make([]byte, MessageLengthMax))
	})
	if tr.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", tr.Dropped())
	}
	if out.CurPosition() != before {
		t.Errorf("oversized frame left %d bytes behind", out.CurPosition()-before)
	}

	// the sequence is not consumed by a dropped frame
	tr.SendMessage(MsgTrace, (&Trace{Text: "ok"}).Encode)
	if seq := out.Result()[before+MessagePositionSeq]; seq != MessageDest+1 {
		t.Errorf("sequence after drop 0x%02x, want 0x%02x", seq, MessageDest+1)
	}
}

func TestParsePayloadUnknown(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQUint(out, 99)
	if _, _, err := ParsePayload(out.Result()); err != ErrUnknownMessage {
		t.Errorf("got %v, want ErrUnknownMessage", err)
	}
}
