// Package otel records auth metrics through an OpenTelemetry meter, for
// deployments that already run an OTel pipeline.
package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nimbusapi/authcore/metrics"
)

// Recorder implements metrics.Recorder on OTel instruments. Observations
// carry operation and status attributes.
type Recorder struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewRecorder creates the instruments on the given meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	operations, err := meter.Int64Counter(
		"auth_operations_total",
		metric.WithDescription("Total auth operations by operation and status."),
	)
	if err != nil {
		return nil, fmt.Errorf("otel recorder: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"auth_operation_duration_seconds",
		metric.WithDescription("Auth operation latency in seconds."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.Buckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("otel recorder: %w", err)
	}

	return &Recorder{operations: operations, duration: duration}, nil
}

func (r *Recorder) RecordOperation(operation, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", outcome),
	)
	ctx := context.Background()
	r.operations.Add(ctx, 1, attrs)
	r.duration.Record(ctx, elapsed.Seconds(), attrs)
}
