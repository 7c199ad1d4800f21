// Package otel records Producer Pal client and snapshot activity as
// OpenTelemetry metrics and spans.
package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/ppal/ppal"
)

// InvocationObserver records tool invocations into OpenTelemetry.
type InvocationObserver struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	failures    metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewInvocationObserver creates an observer bound to the provided
// meter/tracer. A nil tracer records metrics only.
func NewInvocationObserver(meter metric.Meter, tracer trace.Tracer) (*InvocationObserver, error) {
	invocations, err := meter.Int64Counter(
		"ppal.invocations",
		metric.WithDescription("Number of Producer Pal tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter(
		"ppal.invocation.failures",
		metric.WithDescription("Number of failed Producer Pal tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"ppal.invocation.latency",
		metric.WithDescription("Tool invocation latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &InvocationObserver{
		tracer:      tracer,
		invocations: invocations,
		failures:    failures,
		latency:     latency,
	}, nil
}

// ObserveInvoke records one invocation result. The span is a child of any
// span carried by ctx.
func (o *InvocationObserver) ObserveInvoke(ctx context.Context, invocation ppal.Invocation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool", invocation.Tool),
		attribute.Bool("success", invocation.Success),
	}
	if invocation.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", string(invocation.ErrorKind)))
	}

	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	if !invocation.Success {
		o.failures.Add(ctx, 1, options)
	}
	o.latency.Record(ctx, invocation.Duration.Seconds(), options)

	if o.tracer == nil {
		return
	}
	end := time.Now()
	spanAttrs := append(attrs, attribute.String("request_id", invocation.RequestID))
	_, span := o.tracer.Start(ctx, "ppal.invoke",
		trace.WithTimestamp(end.Add(-invocation.Duration)),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(spanAttrs...),
	)
	if !invocation.Success {
		span.SetStatus(codes.Error, string(invocation.ErrorKind))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

var _ ppal.Observer = (*InvocationObserver)(nil)
