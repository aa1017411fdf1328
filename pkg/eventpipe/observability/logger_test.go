package observability_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/contentforge/eventpipe/pkg/eventpipe/observability"
)

func TestNilLoggerTolerance(t *testing.T) {
	// Every helper must be a no-op on a nil logger.
	assert.Nil(t, observability.EnrichLogger(nil, "consumer", 0))
	observability.LogPipelineStart(nil, 4)
	observability.LogPipelineStop(nil, 12.5)
	observability.LogObserverError(nil, "e1", assert.AnError)
	observability.LogDeadLetter(nil, "e1", "Standard queue full", 1)
	observability.LogRetryScheduled(nil, "e1", 2, time.Second)
	observability.LogPermanentFailure(nil, "e1", "reason", 3)
}

func TestEnrichLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	enriched := observability.EnrichLogger(logger, "consumer", 2)
	enriched.Info("test")

	out := buf.String()
	assert.Contains(t, out, "component=consumer")
	assert.Contains(t, out, "worker=2")
}

func TestLogDeadLetter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	observability.LogDeadLetter(logger, "e1", "Batch queue full", 2)

	out := buf.String()
	assert.Contains(t, out, "event dead-lettered")
	assert.Contains(t, out, "e1")
	assert.Contains(t, out, "retry_count=2")
}

func TestTimedOperation(t *testing.T) {
	elapsed := observability.TimedOperation()
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, elapsed(), float64(5))
}
