package telemetry

import (
	"context"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName names the tracer used by the runtime packages.
const TracerName = "github.com/openfga/xstream"

// TracerProvider is a trace.TracerProvider that can be flushed and closed.
type TracerProvider interface {
	trace.TracerProvider

	ForceFlush(context.Context) error
	Close(context.Context) error
	RegisterSpanProcessor(sdktrace.SpanProcessor)
}

type tracerProvider struct {
	embedded.TracerProvider

	tp *sdktrace.TracerProvider

	mu     sync.Mutex
	closed bool
}

func (t *tracerProvider) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	return t.tp.Tracer(name, options...)
}

// ForceFlush exports the spans that ended but were not exported yet.
func (t *tracerProvider) ForceFlush(ctx context.Context) error {
	return t.tp.ForceFlush(ctx)
}

// Close flushes pending spans and shuts the provider down. Later calls are
// no-ops, and tracers obtained afterwards record nothing.
func (t *tracerProvider) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	if err := t.tp.ForceFlush(ctx); err != nil {
		return err
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		return err
	}
	t.closed = true
	return nil
}

func (t *tracerProvider) RegisterSpanProcessor(spanProcessor sdktrace.SpanProcessor) {
	t.tp.RegisterSpanProcessor(spanProcessor)
}

type noopTracerProvider struct {
	noop.TracerProvider
}

func (noopTracerProvider) ForceFlush(context.Context) error {
	return nil
}

func (noopTracerProvider) Close(context.Context) error {
	return nil
}

func (noopTracerProvider) RegisterSpanProcessor(sdktrace.SpanProcessor) {}

// Noop returns a provider whose spans are never recorded.
func Noop() TracerProvider {
	return noopTracerProvider{TracerProvider: noop.NewTracerProvider()}
}
