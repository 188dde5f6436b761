package transfer

import (
	"context"
	"sync"
)

// Outcome is the terminal result of one transfer: the response body on
// success, or a typed Error. Exactly one of the two is set.
type Outcome struct {
	Body []byte
	Err  *Error
}

// Pending is the write side of a single-assignment result slot. It is
// created before a transfer is scheduled and resolved exactly once by the
// worker that performs the transfer.
type Pending struct {
	f    *Future
	once sync.Once
}

// Future is the read side. The scheduling caller waits on it from any
// goroutine; it becomes ready when the worker resolves the Pending.
type Future struct {
	done    chan struct{}
	outcome Outcome
}

// NewPending creates a linked pending/future pair.
func NewPending() (*Pending, *Future) {
	f := &Future{done: make(chan struct{})}
	return &Pending{f: f}, f
}

// Resolve publishes the outcome and wakes all waiters. The write-once
// contract is enforced here: resolving twice is a programming error.
func (p *Pending) Resolve(o Outcome) {
	resolved := false
	p.once.Do(func() {
		p.f.outcome = o
		close(p.f.done)
		resolved = true
	})
	if !resolved {
		panic("transfer: Pending resolved twice")
	}
}

// Done returns a channel that is closed once the transfer has completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the transfer completes or ctx is done. It returns the
// response body on success. Context expiry abandons the wait, not the
// transfer; the worker still runs it to completion.
func (f *Future) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.outcome.Err != nil {
		return nil, f.outcome.Err
	}
	return f.outcome.Body, nil
}
