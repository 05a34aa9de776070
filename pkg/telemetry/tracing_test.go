package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := MustNewTracerProvider(
		WithServiceName("xstream-test"),
		WithSamplingRatio(1),
		WithExporter(exporter),
	)

	spanRecorder := tracetest.NewSpanRecorder()
	tp.RegisterSpanProcessor(spanRecorder)

	_, span := tp.Tracer("").Start(context.Background(), "test")
	TraceError(span, errors.New("kernel failed"))
	span.End()

	spans := spanRecorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "test", spans[0].Name())
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.Equal(t, "kernel failed", spans[0].Status().Description)

	require.NoError(t, tp.ForceFlush(context.Background()))
	exported := exporter.GetSpans()
	require.Len(t, exported, 1)
	require.Equal(t, "test", exported[0].Name)

	require.NoError(t, tp.Close(context.Background()))
	require.NoError(t, tp.Close(context.Background()))
}

func TestTracerAfterClose(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := MustNewTracerProvider(
		WithSamplingRatio(1),
		WithExporter(exporter),
	)
	require.NoError(t, tp.Close(context.Background()))

	require.NotPanics(t, func() {
		tp.RegisterSpanProcessor(tracetest.NewSpanRecorder())
		_, span := tp.Tracer("").Start(context.Background(), "late")
		span.End()
		require.False(t, span.SpanContext().IsValid())
	})
	require.Empty(t, exporter.GetSpans())
}

func TestNoop(t *testing.T) {
	tp := Noop()
	_, span := tp.Tracer("").Start(context.Background(), "noop")
	span.End()
	require.False(t, span.SpanContext().IsValid())
	require.NoError(t, tp.ForceFlush(context.Background()))
	require.NoError(t, tp.Close(context.Background()))
}
