package sdk

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this instrumentation library to OpenTelemetry.
const tracerName = "github.com/feathervault/feathervault/sdk"

// startSpan opens a client span for one vault operation. The span rides
// the caller's context: tracing metadata and cancellation are passed
// through the SDK unchanged, independently of configuration resolution.
// If no tracer provider is installed the otel default is a no-op, so
// this costs nothing for callers that don't trace.
func startSpan(ctx context.Context, operation, secretName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindClient),
	}
	if secretName != "" {
		opts = append(opts, trace.WithAttributes(attribute.String("feathervault.secret.name", secretName)))
	}
	return tracer.Start(ctx, operation, opts...)
}

// endSpan records err (if any) and closes the span.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
