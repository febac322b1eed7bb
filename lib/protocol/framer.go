package protocol

import (
	"bytes"
	"errors"
)

// ErrBufferOverflow indicates the inbound buffer exceeded its configured
// limit before a complete message was matched. The session treats this as a
// transport-level failure and closes.
var ErrBufferOverflow = errors.New("inbound buffer limit exceeded")

// Framer accumulates raw stream bytes and answers boundary questions over
// the accumulated text. It performs no transformation of content; boundary
// tests are pure delimiter checks and are idempotent - asking again without
// new data returns the same answer.
//
// The stream may deliver arbitrary fragment boundaries: a chunk may end
// mid-line and may contain zero or many newlines. Buffered bytes are never
// consumed here; the owning session calls Reset once a complete message or
// block has been handled or discarded.
type Framer struct {
	buf bytes.Buffer
	max int
}

// NewFramer creates a Framer bounded to max bytes. A non-positive max
// selects DefaultMaxBuffer.
func NewFramer(max int) *Framer {
	if max <= 0 {
		max = DefaultMaxBuffer
	}
	return &Framer{max: max}
}

// Append adds raw bytes to the buffer. Returns ErrBufferOverflow if the
// buffer would exceed its limit; the buffer is left unchanged in that case.
func (f *Framer) Append(data []byte) error {
	if f.buf.Len()+len(data) > f.max {
		return ErrBufferOverflow
	}
	f.buf.Write(data)
	return nil
}

// MessageComplete reports whether the buffer ends in a newline, meaning the
// final line is complete.
func (f *Framer) MessageComplete() bool {
	b := f.buf.Bytes()
	return len(b) > 0 && b[len(b)-1] == '\n'
}

// BlockComplete reports whether the buffer ends in a blank line, meaning a
// full handshake block has arrived. Carriage returns are tolerated.
func (f *Framer) BlockComplete() bool {
	b := f.buf.Bytes()
	return bytes.HasSuffix(b, []byte("\n\n")) || bytes.HasSuffix(b, []byte("\r\n\r\n"))
}

// String returns the buffered text.
func (f *Framer) String() string {
	return f.buf.String()
}

// Len returns the number of buffered bytes.
func (f *Framer) Len() int {
	return f.buf.Len()
}

// Reset discards all buffered bytes.
func (f *Framer) Reset() {
	f.buf.Reset()
}
