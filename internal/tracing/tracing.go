package tracing

import (
	"context"

	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// tracer returns the package tracer. This must be a function (not a package-level var)
// because the global TracerProvider isn't set until Init() runs.
func tracer() trace.Tracer {
	return otel.Tracer("shotlog")
}

// DefaultEndpoint is the OTLP HTTP collector used when none is configured.
const DefaultEndpoint = "localhost:4318"

// Init creates and registers a tracer provider with an OTLP HTTP exporter
// sending to endpoint (host:port). Returns the provider so the caller can
// defer Shutdown.
func Init(ctx context.Context, endpoint, version string) (*sdktrace.TracerProvider, error) {
	// Bridge OTel's internal logger to zerolog
	otel.SetLogger(zerologr.New(&log.Logger))

	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("shotlog"),
			semconv.ServiceVersionKey.String(version),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}

// ShotSpan starts a span for a shot log operation with standard attributes.
// beanID may be empty for operations that span all beans.
func ShotSpan(ctx context.Context, op, userID, beanID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("shotlog.op", op),
		attribute.String("shotlog.user", userID),
	}
	if beanID != "" {
		attrs = append(attrs, attribute.String("shotlog.bean", beanID))
	}
	return tracer().Start(ctx, "shots."+op, trace.WithAttributes(attrs...))
}

// EndWithError records an error on a span and sets its status.
// If err is nil, this is a no-op.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
