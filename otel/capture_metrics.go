package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/petal-labs/ppal/snapshot"
)

// CaptureMetrics translates scheduled snapshot captures into metrics.
type CaptureMetrics struct {
	captures metric.Int64Counter
	skipped  metric.Int64Counter
	pruned   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewCaptureMetrics creates the snapshot instruments on meter.
func NewCaptureMetrics(meter metric.Meter) (*CaptureMetrics, error) {
	captures, err := meter.Int64Counter("ppal.snapshot.captures",
		metric.WithDescription("Number of snapshot captures"),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter("ppal.snapshot.skipped",
		metric.WithDescription("Number of captures skipped because one was still running"),
	)
	if err != nil {
		return nil, err
	}

	pruned, err := meter.Int64Counter("ppal.snapshot.pruned",
		metric.WithDescription("Number of snapshots removed by retention"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("ppal.snapshot.capture.duration",
		metric.WithDescription("Duration of a snapshot capture in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &CaptureMetrics{
		captures: captures,
		skipped:  skipped,
		pruned:   pruned,
		duration: duration,
	}, nil
}

// ObserveCapture records one scheduler pass.
func (m *CaptureMetrics) ObserveCapture(result snapshot.CaptureResult) {
	if m == nil {
		return
	}
	ctx := context.Background()
	if result.Skipped {
		m.skipped.Add(ctx, 1)
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", result.Err == nil))
	m.captures.Add(ctx, 1, attrs)
	m.duration.Record(ctx, result.Duration.Seconds(), attrs)
	if result.Pruned > 0 {
		m.pruned.Add(ctx, int64(result.Pruned))
	}
}

var _ snapshot.CaptureObserver = (*CaptureMetrics)(nil)
