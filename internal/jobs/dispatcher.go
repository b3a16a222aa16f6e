// Package jobs runs report recomputation asynchronously. Mutating ledger
// operations return affected account IDs; callers enqueue one idempotent
// recompute job per account. Delivery is at-least-once and jobs may run
// out of order relative to further mutations — recomputation re-derives
// totals from current ledger state, so a stale job converges to the same
// final result once the queue drains. Report reads are eventually
// consistent with ledger writes.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/yelinaung/ledger-engine/internal/logger"
)

// RecomputeJob asks for the reports of one account to be refreshed.
type RecomputeJob struct {
	ID         string
	AccountID  int
	EnqueuedAt time.Time
}

// Handler processes one recompute job. It must be idempotent.
type Handler func(ctx context.Context, job RecomputeJob) error

// Dispatcher fans recompute jobs out to a fixed pool of workers over a
// buffered channel. Safe for concurrent use.
type Dispatcher struct {
	handler Handler
	workers int

	jobChan   chan RecomputeJob
	closeChan chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher. bufferSize bounds how many jobs can
// wait before Enqueue blocks.
func NewDispatcher(handler Handler, workers, bufferSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if bufferSize < 1 {
		bufferSize = 16
	}
	return &Dispatcher{
		handler:   handler,
		workers:   workers,
		jobChan:   make(chan RecomputeJob, bufferSize),
		closeChan: make(chan struct{}),
	}
}

// Enqueue schedules a recompute job for each account ID.
func (d *Dispatcher) Enqueue(ctx context.Context, accountIDs ...int) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return fmt.Errorf("dispatcher is closed")
	}

	for _, accountID := range accountIDs {
		job := RecomputeJob{
			ID:         uuid.New().String(),
			AccountID:  accountID,
			EnqueuedAt: time.Now(),
		}
		select {
		case d.jobChan <- job:
		case <-ctx.Done():
			return ctx.Err()
		case <-d.closeChan:
			return fmt.Errorf("dispatcher is closed")
		}
	}
	return nil
}

// Start launches the worker pool. Workers stop when the context is
// cancelled or the dispatcher is closed.
func (d *Dispatcher) Start(ctx context.Context) {
	for range d.workers {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Close stops accepting jobs and waits for in-flight ones to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.closeChan)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	log := logger.With("jobs")

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.closeChan:
			// Drain what is already queued before exiting.
			for {
				select {
				case job := <-d.jobChan:
					d.run(ctx, log, job)
				default:
					return
				}
			}
		case job := <-d.jobChan:
			d.run(ctx, log, job)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, log zerolog.Logger, job RecomputeJob) {
	start := time.Now()
	if err := d.handler(ctx, job); err != nil {
		log.Error().Err(err).
			Str("job_id", job.ID).
			Int("account_id", job.AccountID).
			Msg("Recompute job failed")
		return
	}
	log.Debug().
		Str("job_id", job.ID).
		Int("account_id", job.AccountID).
		Dur("took", time.Since(start)).
		Msg("Recompute job done")
}
