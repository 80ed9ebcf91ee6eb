package protocol

// OutputBuffer receives encoded frames
type OutputBuffer interface {
	// Output appends data, dropping whatever does not fit
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update overwrites an already written byte
	Update(pos int, val byte)

	// DataSince returns the bytes written after pos
	DataSince(pos int) []byte

	// Truncate discards everything written after pos
	Truncate(pos int)
}

// ScratchOutput is a fixed OutputBuffer the firmware drains after each frame
type ScratchOutput struct {
	buf [MessageMax]byte
	n   int
}

// NewScratchOutput returns an empty ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.n += copy(s.buf[s.n:], data)
}

func (s *ScratchOutput) CurPosition() int {
	return s.n
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.n {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos < 0 || pos > s.n {
		return nil
	}
	return s.buf[pos:s.n]
}

func (s *ScratchOutput) Truncate(pos int) {
	if pos >= 0 && pos < s.n {
		s.n = pos
	}
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.n]
}

// Reset empties the buffer
func (s *ScratchOutput) Reset() {
	s.n = 0
}

// frameBuffer accumulates host input until whole frames can be parsed.
// Consumed bytes are shifted out so Data is always contiguous.
type frameBuffer struct {
	buf []byte
}

func newFrameBuffer(capacity int) *frameBuffer {
	return &frameBuffer{buf: make([]byte, 0, capacity)}
}

// Write appends as much of p as fits and returns the count
func (f *frameBuffer) Write(p []byte) int {
	n := cap(f.buf) - len(f.buf)
	if n > len(p) {
		n = len(p)
	}
	f.buf = append(f.buf, p[:n]...)
	return n
}

// Data returns the unconsumed bytes, valid until the next Write or Pop
func (f *frameBuffer) Data() []byte {
	return f.buf
}

// Len returns the number of unconsumed bytes
func (f *frameBuffer) Len() int {
	return len(f.buf)
}

// Pop consumes n bytes from the front
func (f *frameBuffer) Pop(n int) {
	if n >= len(f.buf) {
		f.buf = f.buf[:0]
		return
	}
	m := copy(f.buf, f.buf[n:])
	f.buf = f.buf[:m]
}

// Reset drops everything
func (f *frameBuffer) Reset() {
	f.buf = f.buf[:0]
}
