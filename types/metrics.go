package types

// This file defines how the preference system reports what it is doing.

/*
Metrics is an interface that defines the events worth counting.
Each method represents one event in the cache lifecycle. The facade, the
write-back worker and the notifier call these methods whenever something
happens.
*/
type Metrics interface {

	// Enqueued is called when a write job is handed to the write-back worker.
	Enqueued()

	// Committed is called when the worker commits a job to the durable store.
	Committed()

	// CommitFailed is called when a durable commit fails. Failures are
	// logged and dropped, so this counter is the only lasting trace of them.
	CommitFailed()

	// Notified is called once per listener invocation.
	Notified()

	// Pruned is called when a dead listener reference is removed
	// from the notification list.
	Pruned()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

Users who do not care about metrics still get a working system without
nil checks sprinkled through the hot paths.
*/
type NoopMetrics struct{}

func (NoopMetrics) Enqueued()     {}
func (NoopMetrics) Committed()    {}
func (NoopMetrics) CommitFailed() {}
func (NoopMetrics) Notified()     {}
func (NoopMetrics) Pruned()       {}
