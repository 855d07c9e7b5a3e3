// Package telemetry installs the global OpenTelemetry TracerProvider and
// provides span helpers for the import/store pipeline.
//
// Grounded on the teacher's internal/executor/tracing.go span-per-stage
// shape (startXSpan/endXSpan pairs around workflow/goal/phase/sub-agent
// execution), generalised to import/fight/txn spans and calling
// go.opentelemetry.io/otel directly instead of the dropped
// agentkit/telemetry wrapper tracing.go used for GetTracer/Debug.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "esoctl"

// Options configures Init, mirroring the esoctl.toml [telemetry] table.
type Options struct {
	Enabled  bool
	Protocol string // "noop" | "otlp"
	Endpoint string // otlp collector address; defaults to the exporter's own default when empty
}

// shutdownFunc flushes and closes the installed TracerProvider.
type shutdownFunc func(context.Context) error

// Init installs the global TracerProvider according to opts and returns a
// shutdown function the caller should defer. With Enabled=false (or
// Protocol=="noop"), the OpenTelemetry no-op provider is left in place, so
// every span created through Tracer() costs nothing.
func Init(ctx context.Context, opts Options) (shutdownFunc, error) {
	if !opts.Enabled || opts.Protocol == "" || opts.Protocol == "noop" {
		return func(context.Context) error { return nil }, nil
	}
	if opts.Protocol != "otlp" {
		return nil, fmt.Errorf("telemetry: unknown protocol %q", opts.Protocol)
	}

	exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
	if opts.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithEndpoint(opts.Endpoint))
	}
	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(tracerName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the esoctl tracer, bound to whatever TracerProvider Init
// installed (or the default no-op provider if Init was never called).
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartImport starts a span around one call to index.Ingest.
func StartImport(ctx context.Context, logPath string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "import.run")
	span.SetAttributes(attribute.String("import.log_path", logPath))
	return ctx, span
}

// StartFight starts a span around one fight being written to a store.
func StartFight(ctx context.Context, fightID string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "fight.write")
	span.SetAttributes(attribute.String("fight.id", fightID))
	return ctx, span
}

// StartTxn starts a span around one store transaction.
func StartTxn(ctx context.Context, op string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "store.txn."+op)
}

// End records err (if any) on span and closes it, mirroring the
// teacher's endXSpan(span, ..., err) shape.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
