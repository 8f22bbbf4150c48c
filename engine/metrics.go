package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// metrics wraps the OpenTelemetry instruments a run reports batch progress
// through, scoped to the meter named by [Config.ProgressSink].
type metrics struct {
	batchesCommitted metric.Int64Counter
	batchesFailed    metric.Int64Counter
	resourcesWritten metric.Int64Counter
	batchDuration    metric.Float64Histogram
}

func newMetrics(scope string) (*metrics, error) {
	meter := otel.Meter(scope)

	batchesCommitted, err := meter.Int64Counter("data2neo.batches.committed",
		metric.WithDescription("Number of commit batches successfully written"))
	if err != nil {
		return nil, err
	}
	batchesFailed, err := meter.Int64Counter("data2neo.batches.failed",
		metric.WithDescription("Number of commit batches that exhausted retries"))
	if err != nil {
		return nil, err
	}
	resourcesWritten, err := meter.Int64Counter("data2neo.resources.written",
		metric.WithDescription("Number of source resources folded into a committed batch"))
	if err != nil {
		return nil, err
	}
	batchDuration, err := meter.Float64Histogram("data2neo.batch.duration_seconds",
		metric.WithDescription("Wall-clock time to build and commit one batch"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &metrics{
		batchesCommitted: batchesCommitted,
		batchesFailed:    batchesFailed,
		resourcesWritten: resourcesWritten,
		batchDuration:    batchDuration,
	}, nil
}

func (m *metrics) recordCommitted(ctx context.Context, resourceCount int, seconds float64) {
	if m == nil {
		return
	}
	m.batchesCommitted.Add(ctx, 1)
	m.resourcesWritten.Add(ctx, int64(resourceCount))
	m.batchDuration.Record(ctx, seconds)
}

func (m *metrics) recordFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.batchesFailed.Add(ctx, 1)
}
