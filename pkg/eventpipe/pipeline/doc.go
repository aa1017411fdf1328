// Package pipeline implements the event distribution engine: producers
// submit typed events with a routing priority, the pipeline enqueues them
// into one of several bounded queues, consumer workers fan each event out to
// the registered observers, and failures flow through a dead-letter queue
// with exponential-backoff retries.
//
// # Routing
//
// Submit never blocks. High routes through a priority-ordered queue drained
// preferentially on every consumer iteration (strict priority, not
// round-robin: sustained High load can starve the standard queue by design).
// Batch routes through the batch queue, drained by a single aggregating
// consumer that trades latency for throughput. Normal and Low share the
// standard FIFO queue. A full target queue immediately dead-letters the
// event instead of blocking the producer.
//
// # Failure handling
//
// Nothing thrown inside a worker loop crosses the public API. Observer
// errors and panics are isolated per observer; an event's dispatch failure
// dead-letters that event only. The dead-letter worker retries with
// exponential backoff up to a cumulative per-event cap, then logs the event
// as permanently failed, records it in the optional journal, and discards
// it. The only errors a producer sees are the synchronous validation
// failures of Submit itself.
//
// # Lifecycle
//
// Start and Stop are idempotent. Workers poll a running flag each loop
// iteration; Stop flips the flag and waits a bounded grace period for the
// current dispatches to finish. Events still queued at shutdown are
// abandoned with the pipeline instance.
package pipeline
