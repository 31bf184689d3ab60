// Package writeback is the ordered async durability lane. It decouples the
// reader path from storage I/O: mutations land in an in-memory FIFO and one
// background worker commits them to the durable store, one per commit.
package writeback

import (
	"log/slog"
	"sync"

	"github.com/prefkit/prefkit/storage"
	"github.com/prefkit/prefkit/types"
)

// Job is one pending durable mutation: a single field write or removal.
type Job struct {
	Name   string
	Value  any
	Remove bool
}

/*
Worker drains a FIFO of pending jobs on a single background goroutine.

Two properties matter here and both come from having exactly one lane:

 1. Jobs commit in the exact order they were enqueued, so writes to the
    same storage name are never reordered relative to each other.
 2. Enqueue never blocks the caller. The queue is unbounded; a slow or
    wedged store grows the queue but never stalls readers.

A failed commit is logged and dropped — the caller that triggered the write
already returned, and the in-memory cache stays the presumed-correct value.
There is no cancellation for enqueued jobs; once accepted, a job commits
unless the process dies first.
*/
type Worker struct {
	store   storage.Store
	logger  *slog.Logger
	metrics types.Metrics

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Job
	closed bool
	wg     sync.WaitGroup
}

// NewWorker creates a worker over the store and starts its goroutine.
func NewWorker(store storage.Store, logger *slog.Logger, metrics types.Metrics) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	w := &Worker{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
	w.cond = sync.NewCond(&w.mu)

	w.wg.Add(1)
	go w.run()
	return w
}

// Enqueue appends a job to the queue and returns immediately.
// Jobs enqueued after Close are dropped.
func (w *Worker) Enqueue(job Job) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.logger.Warn("write-back job after close, dropped", "name", job.Name)
		return
	}
	w.queue = append(w.queue, job)
	w.metrics.Enqueued()
	w.cond.Signal()
}

// Pending reports how many jobs are still waiting in the queue. A job
// already handed to the store is not counted. Mostly useful for tests
// and observability.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

/*
Close stops intake, drains everything already queued, and waits for the
worker goroutine to finish. Without this, pending writes could be lost on
shutdown.
*/
func (w *Worker) Close() {
	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 {
			// closed and drained
			w.mu.Unlock()
			return
		}
		job := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.apply(job)
	}
}

// apply opens one mutation scope, applies exactly one field write or
// removal, and commits synchronously before the next job is taken.
func (w *Worker) apply(job Job) {
	editor := w.store.Edit()
	if job.Remove {
		editor.Remove(job.Name)
	} else {
		editor.PutValue(job.Name, job.Value)
	}

	if err := editor.Commit(); err != nil {
		// Not retried, not propagated. The cache remains authoritative.
		w.logger.Error("preference commit failed", "name", job.Name, "error", err)
		w.metrics.CommitFailed()
		return
	}
	w.metrics.Committed()
}
