package xstream

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openfga/xstream/internal/workqueue"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/telemetry"
)

// Stream is an ordered queue of work for one device. Work on a stream starts
// in enqueue order and, on a device, runs after the work enqueued before it.
type Stream struct {
	rt       *Runtime
	id       ulid.ULID
	name     string
	device   int
	priority int
	queue    *workqueue.Queue
	slot     int

	// pending is the last signal launched for this stream.
	pending   atomic.Uint64
	err       atomic.Pointer[error]
	destroyed atomic.Bool
}

// NewStream creates a stream on device id (-1 for the host). The priority is
// clamped into the supported range. An empty name is replaced by a generated one.
func (rt *Runtime) NewStream(id, priority int, name string) (*Stream, error) {
	if rt.closed.Load() {
		return nil, ErrClosed
	}
	if err := rt.checkDevice(id); err != nil {
		return nil, err
	}

	clamped := max(rt.priorityGreatest, min(rt.priorityLeast, priority))
	if clamped != priority {
		rt.logger.Debug("stream priority clamped",
			zap.Int("requested", priority),
			zap.Int("priority", clamped),
			zap.Int("least", rt.priorityLeast),
			zap.Int("greatest", rt.priorityGreatest))
	}

	s := &Stream{
		rt:       rt,
		id:       ulid.Make(),
		device:   id,
		priority: clamped,
	}
	s.name = name
	if s.name == "" {
		s.name = fmt.Sprintf("stream-%d-%s", id, s.id)
	}

	q, err := rt.newQueue(s.name)
	if err != nil {
		return nil, err
	}
	s.queue = q

	if err := rt.registry.register(s); err != nil {
		return nil, err
	}

	rt.logger.Debug("stream created",
		zap.String("stream", s.name),
		zap.String("id", s.id.String()),
		zap.Int("device", id),
		zap.Int("priority", clamped))
	return s, nil
}

func (s *Stream) ID() ulid.ULID {
	return s.id
}

func (s *Stream) Name() string {
	return s.name
}

func (s *Stream) Device() int {
	return s.device
}

func (s *Stream) Priority() int {
	return s.priority
}

func (s *Stream) String() string {
	return s.name
}

// Signal issues the next signal of the stream's device.
func (s *Stream) Signal() device.Signal {
	return s.rt.signal(s.device)
}

// Pending returns the last signal launched on this stream that the device has
// not confirmed as complete, or 0.
func (s *Stream) Pending() device.Signal {
	sig := device.Signal(s.pending.Load())
	if sig == 0 || s.device < 0 || s.rt.backend.Query(s.device, sig) {
		return 0
	}
	return sig
}

// fail records the first asynchronous failure on the stream until the next Wait.
func (s *Stream) fail(err error) {
	s.err.CompareAndSwap(nil, &err)
}

func (s *Stream) takeErr() error {
	if p := s.err.Swap(nil); p != nil {
		return *p
	}
	return nil
}

// Wait blocks until all work enqueued on the stream before the call finished.
// It returns the first failure of asynchronous work since the previous Wait.
func (s *Stream) Wait(ctx context.Context) error {
	ctx, span := s.rt.tracer.Start(ctx, "xstream.Stream.Wait", trace.WithAttributes(
		attribute.String("stream", s.name),
		attribute.Int("device", s.device),
	))
	defer span.End()

	e, err := s.rt.enqueue(s, newMarker(s.rt, "wait", s, 0))
	if err != nil {
		telemetry.TraceError(span, err)
		return err
	}
	if _, err := e.Wait(ctx, true); err != nil {
		telemetry.TraceError(span, err)
		return err
	}

	if err := s.takeErr(); err != nil {
		telemetry.TraceError(span, err)
		return err
	}
	return e.Err()
}

// WaitEvent makes the stream wait for ev without blocking the caller: work
// enqueued on s afterwards starts only once ev occurred.
func (s *Stream) WaitEvent(ctx context.Context, ev *Event) error {
	return ev.WaitStream(ctx, s)
}

// Destroy drains the stream and releases its registry slot. Destroying a
// stream twice is a no-op.
func (s *Stream) Destroy(ctx context.Context) error {
	if !s.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	if !s.rt.closed.Load() {
		if err := s.Wait(ctx); err != nil && ctx.Err() != nil {
			s.destroyed.Store(false)
			return err
		}
	}
	if s.rt.registry.unregister(s) {
		s.rt.logger.Debug("stream destroyed", zap.String("stream", s.name))
	}
	return nil
}

// WaitAll waits for every registered stream. Without streams it drains the
// global queue instead.
func (rt *Runtime) WaitAll(ctx context.Context) error {
	return rt.waitStreams(ctx, allDevices)
}

// WaitDevice waits for every registered stream of device id.
func (rt *Runtime) WaitDevice(ctx context.Context, id int) error {
	if err := rt.checkDevice(id); err != nil {
		return err
	}
	return rt.waitStreams(ctx, id)
}

func (rt *Runtime) waitStreams(ctx context.Context, id int) error {
	ctx, span := rt.tracer.Start(ctx, "xstream.WaitAll", trace.WithAttributes(attribute.Int("device", id)))
	defer span.End()

	streams := rt.registry.live(id)
	if len(streams) == 0 {
		e, err := rt.enqueue(nil, newMarker(rt, "wait", nil, 0))
		if err != nil {
			telemetry.TraceError(span, err)
			return err
		}
		if _, err := e.Wait(ctx, true); err != nil {
			telemetry.TraceError(span, err)
			return err
		}
		for d := range rt.globalPending {
			if id != allDevices && d != id {
				continue
			}
			sig := device.Signal(rt.globalPending[d].Load())
			if err := rt.backend.Wait(ctx, d, sig); err != nil {
				telemetry.TraceError(span, err)
				return err
			}
		}
		return e.Err()
	}

	var first error
	for _, s := range streams {
		if err := s.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				telemetry.TraceError(span, err)
				return err
			}
			if first == nil {
				first = err
			}
		}
	}
	if first != nil {
		telemetry.TraceError(span, first)
	}
	return first
}
