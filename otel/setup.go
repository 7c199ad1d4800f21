package otel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceName names the resource when none is configured.
const DefaultServiceName = "ppal"

const instrumentationName = "github.com/petal-labs/ppal"

// TelemetryConfig configures Setup.
type TelemetryConfig struct {
	// OTLPEndpoint is a host:port for the OTLP/HTTP trace exporter. Tracing
	// is disabled when empty.
	OTLPEndpoint string
	Insecure     bool
	ServiceName  string
}

// Telemetry holds the providers installed by Setup.
type Telemetry struct {
	Meter  metric.Meter
	Tracer trace.Tracer

	shutdown []func(context.Context) error
}

// Setup builds a meter provider and, with an endpoint, a batching OTLP
// tracer provider. Both are installed as the global providers.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Telemetry, error) {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel: build resource: %w", err)
	}

	telemetry := &Telemetry{}

	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	otelapi.SetMeterProvider(meterProvider)
	telemetry.Meter = meterProvider.Meter(instrumentationName)
	telemetry.shutdown = append(telemetry.shutdown, meterProvider.Shutdown)

	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	if endpoint == "" {
		telemetry.Tracer = noop.NewTracerProvider().Tracer(instrumentationName)
		return telemetry, nil
	}

	options := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.Insecure {
		options = append(options, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, options...)
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, fmt.Errorf("otel: create otlp exporter: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otelapi.SetTracerProvider(tracerProvider)
	telemetry.Tracer = tracerProvider.Tracer(instrumentationName)
	telemetry.shutdown = append(telemetry.shutdown, tracerProvider.Shutdown)
	return telemetry, nil
}

// Shutdown flushes and stops every provider in reverse order.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	for i := len(t.shutdown) - 1; i >= 0; i-- {
		if err := t.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdown = nil
	return errors.Join(errs...)
}
