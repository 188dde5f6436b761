package poster

import (
	"pushrelay/internal/transfer"
)

// Poster is the asynchronous facade over the transfer machinery.
// Implementations differ only in how they schedule work; the transfer
// semantics and the future contract are identical.
type Poster interface {
	// Start initializes any background workers/resources
	Start()

	// Stop gracefully stops the poster, waiting for in-flight transfers up
	// to an internal timeout
	Stop()

	// PostAsync schedules one POST of payload to url and returns the future
	// side of its result slot immediately. The returned error is the single
	// synchronous failure surface: it is non-nil only when scheduling is
	// rejected, in which case no future exists.
	PostAsync(url string, payload []byte) (*transfer.Future, error)

	// QueueDepth returns the current backlog (queued jobs in pool mode,
	// waiters in semaphore mode)
	QueueDepth() int
}
