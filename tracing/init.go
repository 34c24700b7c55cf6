package tracing

import (
	"context"

	"github.com/bsv-blockchain/teranode-blockstore/errors"
	"github.com/bsv-blockchain/teranode-blockstore/settings"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

// InitOtelTracer installs a global tracer provider exporting over OTLP/HTTP. The endpoint is taken
// from the standard OTEL_EXPORTER_OTLP_* environment variables. The returned function flushes and
// shuts the provider down. When tracing is disabled the global no-op provider is left in place.
func InitOtelTracer(ctx context.Context, serviceName string, samplingRate float64, tSettings *settings.Settings) (func(context.Context) error, error) {
	if !tSettings.Tracing.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, errors.NewConfigurationError("cannot create otlp trace exporter", err)
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithSampler(tracesdk.TraceIDRatioBased(samplingRate)),
		tracesdk.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("client.name", tSettings.ClientName),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
