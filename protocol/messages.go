package protocol

import "errors"

// Message IDs of the report stream
const (
	MsgHello       = 1 // version string
	MsgInitResult  = 2 // ok, kind, position, step
	MsgRangeReport = 3 // cycle, fresh, ranges...
	MsgRangeError  = 4 // kind, position, step
	MsgTrace       = 5 // text
	MsgEvent       = 6 // type, id, clock, v1, v2
)

// MaxTraceLen bounds strings so a frame stays under MessageLengthMax
const MaxTraceLen = 48

var ErrUnknownMessage = errors.New("unknown message id")

// MessageName returns the name used in host output
func MessageName(id uint16) string {
	switch id {
	case MsgHello:
		return "hello"
	case MsgInitResult:
		return "init_result"
	case MsgRangeReport:
		return "range_report"
	case MsgRangeError:
		return "range_error"
	case MsgTrace:
		return "trace"
	case MsgEvent:
		return "event"
	default:
		return "unknown"
	}
}

// InitResult reports the outcome of sensor bring-up and calibration
type InitResult struct {
	OK       bool
	Kind     uint8
	Position uint8
	Step     string
}

func (m *InitResult) Encode(out OutputBuffer) {
	EncodeVLQUint(out, boolToUint(m.OK))
	EncodeVLQUint(out, uint32(m.Kind))
	EncodeVLQUint(out, uint32(m.Position))
	EncodeVLQString(out, m.Step, MaxTraceLen)
}

func (m *InitResult) Decode(data *[]byte) (err error) {
	var v uint32
	if v, err = DecodeVLQUint(data); err != nil {
		return err
	}
	m.OK = v != 0
	if v, err = DecodeVLQUint(data); err != nil {
		return err
	}
	m.Kind = uint8(v)
	if v, err = DecodeVLQUint(data); err != nil {
		return err
	}
	m.Position = uint8(v)
	m.Step, err = DecodeVLQString(data)
	return err
}

// RangeReport carries one ReadMulti result in millimetres
type RangeReport struct {
	Cycle  uint32
	Fresh  bool
	Ranges []uint16
}

func (m *RangeReport) Encode(out OutputBuffer) {
	EncodeVLQUint(out, m.Cycle)
	EncodeVLQUint(out, boolToUint(m.Fresh))
	EncodeVLQUint(out, uint32(len(m.Ranges)))
	for _, r := range m.Ranges {
		EncodeVLQUint(out, uint32(r))
	}
}

func (m *RangeReport) Decode(data *[]byte) error {
	cycle, err := DecodeVLQUint(data)
	if err != nil {
		return err
	}
	fresh, err := DecodeVLQUint(data)
	if err != nil {
		return err
	}
	n, err := DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if int(n) > len(*data) {
		return ErrBufferTooSmall
	}
	m.Cycle = cycle
	m.Fresh = fresh != 0
	m.Ranges = make([]uint16, n)
	for i := range m.Ranges {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		m.Ranges[i] = uint16(v)
	}
	return nil
}

// RangeError reports a failed ranging call
type RangeError struct {
	Kind     uint8
	Position uint8
	Step     string
}

func (m *RangeError) Encode(out OutputBuffer) {
	EncodeVLQUint(out, uint32(m.Kind))
	EncodeVLQUint(out, uint32(m.Position))
	EncodeVLQString(out, m.Step, MaxTraceLen)
}

func (m *RangeError) Decode(data *[]byte) error {
	kind, err := DecodeVLQUint(data)
	if err != nil {
		return err
	}
	pos, err := DecodeVLQUint(data)
	if err != nil {
		return err
	}
	step, err := DecodeVLQString(data)
	if err != nil {
		return err
	}
	m.Kind, m.Position, m.Step = uint8(kind), uint8(pos), step
	return nil
}

// Trace is a line of firmware debug output
type Trace struct {
	Text string
}

func (m *Trace) Encode(out OutputBuffer) {
	EncodeVLQString(out, m.Text, MaxTraceLen)
}

func (m *Trace) Decode(data *[]byte) (err error) {
	m.Text, err = DecodeVLQString(data)
	return err
}

// Event is one entry of the firmware event ring
type Event struct {
	Type   uint8
	ID     uint8
	Clock  uint32
	Value1 uint32
	Value2 uint32
}

func (m *Event) Encode(out OutputBuffer) {
	EncodeVLQUint(out, uint32(m.Type))
	EncodeVLQUint(out, uint32(m.ID))
	EncodeVLQUint(out, m.Clock)
	EncodeVLQUint(out, m.Value1)
	EncodeVLQUint(out, m.Value2)
}

func (m *Event) Decode(data *[]byte) error {
	var vals [5]uint32
	for i := range vals {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	m.Type, m.ID = uint8(vals[0]), uint8(vals[1])
	m.Clock, m.Value1, m.Value2 = vals[2], vals[3], vals[4]
	return nil
}

// Hello announces the stream version after boot
type Hello struct {
	Version string
}

func (m *Hello) Encode(out OutputBuffer) {
	EncodeVLQString(out, m.Version, MaxTraceLen)
}

func (m *Hello) Decode(data *[]byte) (err error) {
	m.Version, err = DecodeVLQString(data)
	return err
}

// ParsePayload decodes a frame payload into one of the message types above,
// returned as a pointer
func ParsePayload(payload []byte) (uint16, any, error) {
	data := payload
	id, err := DecodeVLQUint(&data)
	if err != nil {
		return 0, nil, err
	}

	var msg interface{ Decode(*[]byte) error }
	switch uint16(id) {
	case MsgHello:
		msg = &Hello{}
	case MsgInitResult:
		msg = &InitResult{}
	case MsgRangeReport:
		msg = &RangeReport{}
	case MsgRangeError:
		msg = &RangeError{}
	case MsgTrace:
		msg = &Trace{}
	case MsgEvent:
		msg = &Event{}
	default:
		return uint16(id), nil, ErrUnknownMessage
	}
	if err := msg.Decode(&data); err != nil {
		return uint16(id), nil, err
	}
	return uint16(id), msg, nil
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
