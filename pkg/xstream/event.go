package xstream

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openfga/xstream/internal/backoff"
	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/internal/workqueue"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/telemetry"
)

type eventSlot struct {
	entry  *workqueue.Entry
	stream *Stream
}

// occurred reports whether the recorded work finished. Slots of exclude are
// treated as finished.
func (s eventSlot) occurred(exclude *Stream) bool {
	if exclude != nil && s.stream == exclude {
		return true
	}
	return s.entry.Settled()
}

// Event records a point in one or more streams. An event occurred once all
// work enqueued on the recorded streams before the record finished. A
// completed Wait starts a new generation that has to be recorded again.
type Event struct {
	rt    *Runtime
	id    uuid.UUID
	mu    *sync.Mutex
	slots []eventSlot
}

func (rt *Runtime) NewEvent() *Event {
	id := uuid.New()
	return &Event{
		rt:    rt,
		id:    id,
		mu:    rt.locks.For(id.String()),
		slots: make([]eventSlot, 0, rt.registry.capacity()),
	}
}

func (ev *Event) ID() uuid.UUID {
	return ev.id
}

// Expected is the number of recordings not yet consumed by Wait.
func (ev *Event) Expected() int {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return len(ev.slots)
}

// Record records the event on s, or on every registered stream when s is
// nil. With reset the previous recordings are discarded first.
func (ev *Event) Record(s *Stream, reset bool) error {
	streams := []*Stream{s}
	if s == nil {
		streams = ev.rt.registry.live(allDevices)
	}

	ev.mu.Lock()
	if reset {
		ev.slots = ev.slots[:0]
	}
	if len(ev.slots)+len(streams) > cap(ev.slots) {
		n := len(ev.slots)
		ev.mu.Unlock()
		return xerrors.Conditionf("event %s holds %d recordings, cannot add %d more", ev.id, n, len(streams))
	}
	ev.mu.Unlock()

	recorded := make([]eventSlot, 0, len(streams))
	for _, st := range streams {
		e, err := ev.rt.enqueue(st, newMarker(ev.rt, "event", st, workqueue.FlagEvent))
		if err != nil {
			return err
		}
		recorded = append(recorded, eventSlot{entry: e, stream: st})
	}

	ev.mu.Lock()
	defer ev.mu.Unlock()
	if len(ev.slots)+len(recorded) > cap(ev.slots) {
		return xerrors.Conditionf("event %s overflowed by concurrent recordings", ev.id)
	}
	ev.slots = append(ev.slots, recorded...)

	ev.rt.logger.Debug("event recorded",
		zap.String("event", ev.id.String()),
		zap.Int("streams", len(recorded)),
		zap.Bool("reset", reset))
	return nil
}

// Query reports without blocking whether the event occurred. Recordings on
// exclude are ignored.
func (ev *Event) Query(exclude *Stream) bool {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return occurred(ev.slots, exclude)
}

func occurred(slots []eventSlot, exclude *Stream) bool {
	for _, slot := range slots {
		if !slot.occurred(exclude) {
			return false
		}
	}
	return true
}

// Wait blocks until the event occurred, ignoring recordings on exclude, and
// then starts a new generation.
func (ev *Event) Wait(ctx context.Context, exclude *Stream) error {
	ctx, span := ev.rt.tracer.Start(ctx, "xstream.Event.Wait", trace.WithAttributes(
		attribute.String("event", ev.id.String()),
	))
	defer span.End()

	if err := backoff.Until(ctx, ev.rt.policy, func() bool { return ev.Query(exclude) }); err != nil {
		telemetry.TraceError(span, err)
		return err
	}

	ev.mu.Lock()
	ev.slots = ev.slots[:0]
	ev.mu.Unlock()
	return nil
}

// WaitStream makes work enqueued on s after the call wait for the event. The
// caller does not block, unless s is nil, in which case it is Wait.
func (ev *Event) WaitStream(ctx context.Context, s *Stream) error {
	if s == nil {
		return ev.Wait(ctx, nil)
	}

	ev.mu.Lock()
	snapshot := make([]eventSlot, len(ev.slots))
	copy(snapshot, ev.slots)
	ev.mu.Unlock()

	item := &workItem{
		rt:     ev.rt,
		kind:   "event_wait",
		stream: s,
		flags:  workqueue.FlagLoop,
	}
	item.body = func(w *workItem, e *workqueue.Entry, _ int, _ device.Signal) {
		if !occurred(snapshot, s) {
			return
		}
		w.flags &^= workqueue.FlagLoop
		w.settle(e, nil)
	}

	_, err := ev.rt.enqueue(s, item)
	return err
}
