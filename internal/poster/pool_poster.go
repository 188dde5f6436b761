package poster

import (
	"pushrelay/internal/transfer"
	"pushrelay/internal/worker"
)

// PoolPoster adapts worker.Pool to the Poster interface.
type PoolPoster struct {
	pool *worker.Pool
}

func NewPoolPoster(pool *worker.Pool) *PoolPoster {
	return &PoolPoster{pool: pool}
}

func (p *PoolPoster) Start() {
	if p.pool != nil {
		p.pool.Start()
	}
}

func (p *PoolPoster) Stop() {
	if p.pool != nil {
		p.pool.Stop()
	}
}

// PostAsync creates the pending/future pair before scheduling so the future
// can be returned the instant the pool accepts the job. On rejection the
// pending is abandoned unresolved and the error surfaces synchronously.
func (p *PoolPoster) PostAsync(url string, payload []byte) (*transfer.Future, error) {
	pending, future := transfer.NewPending()
	job := worker.Job{URL: url, Payload: payload, Pending: pending}
	if err := p.pool.Submit(job); err != nil {
		return nil, err
	}
	return future, nil
}

func (p *PoolPoster) QueueDepth() int {
	if p.pool == nil {
		return 0
	}
	return p.pool.QueueDepth()
}
