// Package worker provides the bounded goroutine pool that executes
// transfers. Exactly one worker runs any given transfer from start to
// finish, so per-transfer state never needs locking.
package worker

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"pushrelay/internal/metrics"
	"pushrelay/internal/transfer"
	"pushrelay/pkg/logger"
)

// Job is one scheduled transfer: the immutable target and payload plus the
// write side of the result slot. The payload is shared read-only with the
// submitter and is never mutated after scheduling.
type Job struct {
	URL     string
	Payload []byte
	Pending *transfer.Pending
}

// Pool is a fixed-size worker pool draining a bounded job queue. Submit
// rejects work synchronously once the system (in-flight + queued) is at
// capacity; that rejection is the only synchronous failure surface.
type Pool struct {
	workerCount     int
	jobQueue        chan Job
	wg              sync.WaitGroup
	stopOnce        sync.Once
	startOnce       sync.Once
	shutdownTimeout time.Duration
	orchestrator    *transfer.Orchestrator
	permits         chan struct{} // counts in-flight + queued jobs for deterministic backpressure
}

// NewPool creates a pool that runs jobs through orc.
// workerCount <= 0 selects 50×NumCPU: transfer workers spend nearly all
// their time blocked on network I/O, so the pool can be far wider than the
// CPU count. jobQueueSize <= 0 selects 10000.
func NewPool(orc *transfer.Orchestrator, workerCount int, jobQueueSize int, shutdownTimeout time.Duration) *Pool {
	if workerCount <= 0 {
		workerCount = 50 * runtime.NumCPU()
		logger.Info("Worker pool size not configured, using default: %d (50×NumCPU for I/O-bound workload)", workerCount)
	}
	if jobQueueSize <= 0 {
		jobQueueSize = 10000
		logger.Info("Job queue size not configured, using default: %d", jobQueueSize)
	}

	logger.Info("Creating worker pool: workers=%d, queueSize=%d, shutdownTimeout=%v", workerCount, jobQueueSize, shutdownTimeout)

	return &Pool{
		workerCount:     workerCount,
		jobQueue:        make(chan Job, jobQueueSize),
		shutdownTimeout: shutdownTimeout,
		orchestrator:    orc,
		permits:         make(chan struct{}, workerCount+jobQueueSize),
	}
}

// Start spawns the worker goroutines. Safe to call more than once; workers
// are only started the first time.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		logger.Info("Starting worker pool with %d workers", p.workerCount)
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
		logger.Info("Worker pool started successfully")
	})
}

// Stop closes the job queue and waits for in-flight transfers to finish,
// bounded by the shutdown timeout. Safe to call more than once.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		logger.Info("Stopping worker pool: closing job queue and waiting for workers to finish")
		close(p.jobQueue)

		done := make(chan struct{})
		go func() {
			defer close(done)
			p.wg.Wait()
		}()

		select {
		case <-done:
			logger.Info("Worker pool stopped: all workers finished gracefully")
		case <-time.After(p.shutdownTimeout):
			logger.Warn("Worker pool stop timed out after %v: some workers may not have finished", p.shutdownTimeout)
		}
	})
}

// QueueDepth returns the number of jobs waiting in the queue.
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// Submit schedules a transfer. It returns an error when the system is at
// capacity; the job's Pending is untouched in that case and the caller
// sees the rejection synchronously.
func (p *Pool) Submit(job Job) error {
	select {
	case p.permits <- struct{}{}:
		// Capacity exists: a worker may receive immediately or the buffer
		// has space, so this send does not block indefinitely.
		p.jobQueue <- job
		return nil
	default:
		logger.Warn("Job queue full: rejecting new transfer (queue size: %d)", cap(p.jobQueue))
		return fmt.Errorf("worker pool queue full (capacity: %d)", cap(p.jobQueue))
	}
}

// worker drains the queue until it is closed. Each job's outcome is
// written into its Pending exactly once, whether the transfer succeeded
// or failed; the orchestrator guarantees no fault escapes to this loop.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger.Info("Worker %d started", id)

	for job := range p.jobQueue {
		metrics.ActiveWorkersGauge.Inc()

		outcome := p.orchestrator.Do(job.URL, job.Payload)
		if outcome.Err != nil {
			logger.Warn("Worker %d: transfer to %s failed: %v", id, job.URL, outcome.Err)
			metrics.TransfersFailedCounter.Inc()
		} else {
			metrics.TransfersSucceededCounter.Inc()
		}
		job.Pending.Resolve(outcome)

		metrics.ActiveWorkersGauge.Dec()
		<-p.permits
	}

	logger.Info("Worker %d stopped", id)
}
