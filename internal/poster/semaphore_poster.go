package poster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"

	"pushrelay/internal/metrics"
	"pushrelay/internal/transfer"
	"pushrelay/pkg/logger"
)

// SemaphorePoster schedules each transfer on its own goroutine, gated by a
// weighted semaphore that bounds how many run concurrently. Unlike the pool
// it never rejects work while running; excess submissions wait for a permit
// inside their goroutine, not in the caller.
type SemaphorePoster struct {
	maxConcurrent   int64
	sem             *semaphore.Weighted
	orchestrator    *transfer.Orchestrator
	wg              sync.WaitGroup
	waiters         atomic.Int64
	startOnce       sync.Once
	stopOnce        sync.Once
	stopped         atomic.Bool
	shutdownTimeout time.Duration
}

// NewSemaphorePoster creates a semaphore-gated poster running transfers
// through orc. maxConcurrent <= 0 selects 10000.
func NewSemaphorePoster(orc *transfer.Orchestrator, maxConcurrent int, shutdownTimeout time.Duration) *SemaphorePoster {
	if maxConcurrent <= 0 {
		maxConcurrent = 10000
	}
	return &SemaphorePoster{
		maxConcurrent:   int64(maxConcurrent),
		sem:             semaphore.NewWeighted(int64(maxConcurrent)),
		orchestrator:    orc,
		shutdownTimeout: shutdownTimeout,
	}
}

func (s *SemaphorePoster) Start() {
	s.startOnce.Do(func() {
		logger.Info("Semaphore poster started with maxConcurrent=%d", s.maxConcurrent)
	})
}

func (s *SemaphorePoster) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		logger.Info("Stopping semaphore poster: waiting for in-flight transfers")

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.wg.Wait()
		}()

		select {
		case <-done:
			logger.Info("Semaphore poster stopped: all transfers finished")
		case <-time.After(s.shutdownTimeout):
			logger.Warn("Semaphore poster stop timed out after %v", s.shutdownTimeout)
		}
	})
}

// PostAsync schedules the transfer and returns its future immediately.
// After Stop the scheduling is rejected synchronously, mirroring the pool's
// queue-full behavior.
func (s *SemaphorePoster) PostAsync(url string, payload []byte) (*transfer.Future, error) {
	if s.stopped.Load() {
		return nil, fmt.Errorf("semaphore poster stopped")
	}

	pending, future := transfer.NewPending()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.waiters.Inc()
		// Acquire with a background context never fails; it only blocks
		// until a permit frees up.
		_ = s.sem.Acquire(context.Background(), 1)
		s.waiters.Dec()
		defer s.sem.Release(1)

		metrics.ActiveWorkersGauge.Inc()
		defer metrics.ActiveWorkersGauge.Dec()

		outcome := s.orchestrator.Do(url, payload)
		if outcome.Err != nil {
			logger.Warn("Semaphore poster: transfer to %s failed: %v", url, outcome.Err)
			metrics.TransfersFailedCounter.Inc()
		} else {
			metrics.TransfersSucceededCounter.Inc()
		}
		pending.Resolve(outcome)
	}()

	return future, nil
}

// QueueDepth reports goroutines waiting on a permit.
func (s *SemaphorePoster) QueueDepth() int {
	v := s.waiters.Load()
	if v < 0 {
		return 0
	}
	return int(v)
}
