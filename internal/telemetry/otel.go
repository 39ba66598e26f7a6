// Package telemetry configures OpenTelemetry tracing for the server.
package telemetry

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/lingoplay/internal/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const ServiceName = "lingoplay"

// Init installs an OTLP/HTTP trace provider when endpoint is set and returns
// its shutdown function. With an empty endpoint the global no-op provider is
// left in place.
func Init(ctx context.Context, endpoint string, logger logging.Logger) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}
	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "failed to shutdown tracer provider", "error", err)
		}
		return nil
	}, nil
}

// WrapHandler starts a server span for every request handled by h.
func WrapHandler(h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, ServiceName)
}
