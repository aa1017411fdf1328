package pipeline

import (
	"runtime"
	"time"

	"github.com/contentforge/eventpipe/pkg/eventpipe/config"
)

// Config tunes the pipeline. Zero values take defaults.
type Config struct {
	// Consumers is the number of consumer workers draining the high and
	// standard queues. Default: runtime.NumCPU().
	Consumers int

	// QueueCapacity bounds the high, standard, and batch queues.
	// Default: 10000.
	QueueCapacity int

	// DeadLetterCapacity bounds the dead-letter queue. It is sized far above
	// the routing queues so that dead-lettering itself effectively never
	// overflows. Default: 100000.
	DeadLetterCapacity int

	// BatchSize caps how many events one batch dispatch cycle drains.
	// Default: 50.
	BatchSize int

	// MaxRetryAttempts caps cumulative retries per event before it is
	// discarded. Default: 3.
	MaxRetryAttempts int

	// RetryBaseDelay is the backoff before the first retry; attempt n waits
	// RetryBaseDelay << n. Default: 100ms.
	RetryBaseDelay time.Duration

	// PollTimeout is how long an idle consumer blocks on the high queue
	// before rechecking the stop signal. Default: 100ms.
	PollTimeout time.Duration

	// BatchPollTimeout is how long the batch consumer waits for the first
	// event of a cycle. Default: 1s.
	BatchPollTimeout time.Duration

	// BatchDrainTimeout is how long the batch consumer waits for each
	// subsequent event while filling a batch. Default: 10ms.
	BatchDrainTimeout time.Duration

	// DeadLetterPoll is the dead-letter worker's poll interval.
	// Default: 1s.
	DeadLetterPoll time.Duration

	// StopGrace is how long Stop waits for in-flight dispatches to finish.
	// Default: 2s.
	StopGrace time.Duration
}

// DefaultConfig returns the default pipeline tuning.
func DefaultConfig() Config {
	return Config{
		Consumers:          runtime.NumCPU(),
		QueueCapacity:      10000,
		DeadLetterCapacity: 100000,
		BatchSize:          50,
		MaxRetryAttempts:   3,
		RetryBaseDelay:     100 * time.Millisecond,
		PollTimeout:        100 * time.Millisecond,
		BatchPollTimeout:   time.Second,
		BatchDrainTimeout:  10 * time.Millisecond,
		DeadLetterPoll:     time.Second,
		StopGrace:          2 * time.Second,
	}
}

// FromConfig binds pipeline tuning from a loaded configuration.
// Missing keys keep their defaults.
func FromConfig(cfg config.Config) Config {
	def := DefaultConfig()
	return Config{
		Consumers:          cfg.Int("consumers", def.Consumers),
		QueueCapacity:      cfg.Int("queue_capacity", def.QueueCapacity),
		DeadLetterCapacity: cfg.Int("dead_letter_capacity", def.DeadLetterCapacity),
		BatchSize:          cfg.Int("batch_size", def.BatchSize),
		MaxRetryAttempts:   cfg.Int("max_retry_attempts", def.MaxRetryAttempts),
		RetryBaseDelay:     cfg.Duration("retry_base_delay", def.RetryBaseDelay),
		PollTimeout:        cfg.Duration("poll_timeout", def.PollTimeout),
		BatchPollTimeout:   cfg.Duration("batch_poll_timeout", def.BatchPollTimeout),
		BatchDrainTimeout:  cfg.Duration("batch_drain_timeout", def.BatchDrainTimeout),
		DeadLetterPoll:     cfg.Duration("dead_letter_poll", def.DeadLetterPoll),
		StopGrace:          cfg.Duration("stop_grace", def.StopGrace),
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Consumers < 1 {
		c.Consumers = def.Consumers
	}
	if c.QueueCapacity < 1 {
		c.QueueCapacity = def.QueueCapacity
	}
	if c.DeadLetterCapacity < 1 {
		c.DeadLetterCapacity = def.DeadLetterCapacity
	}
	if c.BatchSize < 1 {
		c.BatchSize = def.BatchSize
	}
	if c.MaxRetryAttempts < 0 {
		c.MaxRetryAttempts = def.MaxRetryAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = def.RetryBaseDelay
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = def.PollTimeout
	}
	if c.BatchPollTimeout <= 0 {
		c.BatchPollTimeout = def.BatchPollTimeout
	}
	if c.BatchDrainTimeout <= 0 {
		c.BatchDrainTimeout = def.BatchDrainTimeout
	}
	if c.DeadLetterPoll <= 0 {
		c.DeadLetterPoll = def.DeadLetterPoll
	}
	if c.StopGrace <= 0 {
		c.StopGrace = def.StopGrace
	}
	return c
}
