package transfer

import (
	"fmt"
	"io"
)

// Cursor is a read position over an immutable payload. It advances
// monotonically as the engine consumes bytes and never moves past the end
// of the payload. The payload itself is shared read-only with the caller
// and is never copied or mutated.
type Cursor struct {
	data []byte
	off  int
}

// NewCursor returns a cursor positioned at the start of payload.
func NewCursor(payload []byte) *Cursor {
	return &Cursor{data: payload}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.off
}

// Advance moves the cursor forward by n bytes. Moving past the end of the
// payload is a programming error and is rejected.
func (c *Cursor) Advance(n int) error {
	if n < 0 || n > c.Remaining() {
		return fmt.Errorf("cursor advance %d exceeds remaining %d", n, c.Remaining())
	}
	c.off += n
	return nil
}

// Read copies up to len(p) unread bytes into p and advances the cursor by
// exactly the number copied. Once the payload is exhausted it returns 0
// bytes and io.EOF, which terminates the request body without error.
func (c *Cursor) Read(p []byte) (int, error) {
	if c.Remaining() == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.off:])
	if err := c.Advance(n); err != nil {
		// copy bounds n by Remaining, so this cannot happen.
		panic(err)
	}
	return n, nil
}
