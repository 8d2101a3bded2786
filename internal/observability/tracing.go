// Package observability provides OpenTelemetry tracing for pharmadoc.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for pharmadoc spans.
const TracerName = "pharmadoc"

// TracingConfig configures the OpenTelemetry tracing.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317").
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0)
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "pharmadoc",
		ServiceVersion: "0.1.0",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
// Spans are started from the global provider, which InitTracing replaces
// when an endpoint is configured.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{provider: provider}, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes and stops the exporter, if any.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// StartBuildSpan starts a span for an index build.
func StartBuildSpan(ctx context.Context, documentCount int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "pipeline.Build",
		trace.WithAttributes(attribute.Int("build.documents", documentCount)),
	)
}

// RecordBuildResult annotates a build span with what was indexed.
func RecordBuildResult(span trace.Span, segmentCount, dimension int, buildID string) {
	span.SetAttributes(
		attribute.Int("build.segments", segmentCount),
		attribute.Int("build.dimension", dimension),
		attribute.String("build.id", buildID),
	)
}

// StartAnswerSpan starts a span for answering one query.
func StartAnswerSpan(ctx context.Context, k, budget int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "pipeline.Answer",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.Int("retrieve.k", k),
			attribute.Int("context.budget", budget),
		),
	)
}

// StartRetrieveSpan starts a span for a similarity search.
func StartRetrieveSpan(ctx context.Context, k int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "retriever.Retrieve",
		trace.WithAttributes(attribute.Int("retrieve.k", k)),
	)
}

// StartSynthesizeSpan starts a span for answer generation.
func StartSynthesizeSpan(ctx context.Context, model string, segmentCount int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "synthesizer.Synthesize",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.Int("synthesis.segments", segmentCount),
		),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
