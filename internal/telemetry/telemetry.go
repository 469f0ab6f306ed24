// Package telemetry wires the OpenTelemetry trace exporter. Spans are
// recorded throughout the console via the global tracer; this package decides
// whether they go anywhere.
package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/nghyane/mux-console/internal/buildinfo"
	log "github.com/nghyane/mux-console/internal/logging"
)

// Setup installs an OTLP/HTTP trace exporter when OTEL_EXPORTER_OTLP_ENDPOINT
// (or the traces-specific variant) is set. Without an endpoint the global
// no-op provider stays in place and span recording costs nothing.
//
// The returned shutdown func flushes pending spans; callers should invoke it
// during service teardown.
func Setup(ctx context.Context) (func(context.Context) error, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	}
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	// The exporter reads the endpoint and headers from the standard
	// OTEL_EXPORTER_OTLP_* variables.
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", "mux-console"),
		attribute.String("service.version", buildinfo.Version),
	))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Infof("telemetry: exporting traces to %s", endpoint)
	return provider.Shutdown, nil
}
