package transfer

import (
	"fmt"
)

// initialBufferSize is the preallocated capacity of a response Buffer.
const initialBufferSize = 4096

// Buffer is an append-only growable byte store that accumulates the
// response body delivered by the engine. A Buffer with a positive limit
// refuses to grow past it; the refusal is reported as a short write, which
// aborts the copy loop driving the transfer.
type Buffer struct {
	buf   []byte
	limit int
}

// NewBuffer returns an empty buffer. limit bounds the total number of bytes
// the buffer will accept; 0 means unlimited.
func NewBuffer(limit int) *Buffer {
	return &Buffer{
		buf:   make([]byte, 0, initialBufferSize),
		limit: limit,
	}
}

// Write appends p to the buffer, implementing io.Writer. When the append
// would exceed the configured limit it accepts none of p and returns an
// error; the short count is the only signal the copy loop needs to abort
// the transfer.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.limit > 0 && len(b.buf)+len(p) > b.limit {
		return 0, fmt.Errorf("response exceeds %d byte limit", b.limit)
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Len returns the number of accumulated bytes.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Bytes returns the accumulated response body.
func (b *Buffer) Bytes() []byte {
	return b.buf
}
