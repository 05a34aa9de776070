// Package xstream is an asynchronous offload runtime. Work is enqueued on
// streams, which are ordered per-device queues, and executed by a single
// background scheduler against a device.Backend. Events record points in one
// or more streams and can be waited on by the host or by another stream.
//
// All process state lives in a Runtime, so independent runtimes can coexist.
package xstream

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openfga/xstream/internal/backoff"
	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/internal/locks"
	"github.com/openfga/xstream/internal/workqueue"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/device/host"
	"github.com/openfga/xstream/pkg/kernel"
	"github.com/openfga/xstream/pkg/logger"
	"github.com/openfga/xstream/pkg/telemetry"
)

type Runtime struct {
	logger  logger.Logger
	backend device.Backend
	policy  backoff.Policy
	tracer  trace.Tracer
	locks   *locks.Pool
	kernels *kernel.Registry

	queueSize        int
	streamsPerDevice int
	priorityLeast    int
	priorityGreatest int

	registry *registry
	global   *workqueue.Queue
	sched    *scheduler

	// signals[d+1] is the last signal issued for device d.
	signals []atomic.Uint64
	// globalPending[d] is the last signal launched by stream-less work on device d.
	globalPending []atomic.Uint64

	active atomic.Int64

	verbosity    atomic.Int64
	verbositySet bool
	closed       atomic.Bool

	// gate is held shared by every enqueue and exclusively while closing.
	gate     sync.RWMutex
	closeMu  sync.Mutex
	shutdown bool
}

// New returns a runtime. Without WithBackend it drives a single simulated
// host device.
func New(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		logger:           logger.NewNoopLogger(),
		policy:           backoff.Default(),
		tracer:           otel.Tracer(telemetry.TracerName),
		locks:            locks.NewPool(locks.DefaultPoolSize),
		kernels:          kernel.NewRegistry(),
		queueSize:        DefaultQueueSize,
		streamsPerDevice: DefaultStreamsPerDevice,
	}
	for _, opt := range opts {
		opt(rt)
	}

	if rt.backend == nil {
		b, err := host.New(host.WithLogger(rt.logger))
		if err != nil {
			return nil, err
		}
		rt.backend = b
	}

	ndevices := rt.backend.Devices()
	if ndevices > MaxDevices {
		return nil, xerrors.Conditionf("backend %s has %d devices, at most %d are supported", rt.backend.Name(), ndevices, MaxDevices)
	}
	if rt.streamsPerDevice < 1 {
		return nil, xerrors.Conditionf("streams per device must be positive, got %d", rt.streamsPerDevice)
	}
	if rt.priorityGreatest > rt.priorityLeast {
		return nil, xerrors.Conditionf("greatest priority %d is lower than least priority %d", rt.priorityGreatest, rt.priorityLeast)
	}

	global, err := rt.newQueue("global")
	if err != nil {
		return nil, xerrors.With(err, xerrors.ErrCondition)
	}
	rt.global = global

	rt.registry = newRegistry(MaxDevices * rt.streamsPerDevice)
	rt.signals = make([]atomic.Uint64, ndevices+1)
	rt.globalPending = make([]atomic.Uint64, ndevices)
	rt.active.Store(int64(ndevices - 1))
	rt.sched = newScheduler(rt)
	if rt.verbositySet {
		rt.applyVerbosity(int(rt.verbosity.Load()))
	}

	rt.logger.Debug("runtime created",
		zap.String("backend", rt.backend.Name()),
		zap.Int("devices", ndevices),
		zap.Int("queue_size", rt.queueSize))
	return rt, nil
}

func (rt *Runtime) newQueue(name string) (*workqueue.Queue, error) {
	return workqueue.New(rt.queueSize,
		workqueue.WithBackoff(rt.policy),
		workqueue.WithLogger(rt.logger),
		workqueue.WithName(name))
}

func (rt *Runtime) Logger() logger.Logger {
	return rt.logger
}

func (rt *Runtime) Backend() device.Backend {
	return rt.backend
}

// Kernels is the registry used by CallKernel.
func (rt *Runtime) Kernels() *kernel.Registry {
	return rt.kernels
}

// NDevices is the number of devices of the backend, excluding the host.
func (rt *Runtime) NDevices() int {
	return rt.backend.Devices()
}

// ActiveDevice is the device used by work that names neither a stream nor a
// device. It defaults to the last device, or -1 (the host) without devices.
func (rt *Runtime) ActiveDevice() int {
	return int(rt.active.Load())
}

func (rt *Runtime) SetActiveDevice(id int) error {
	if err := rt.checkDevice(id); err != nil {
		return err
	}
	rt.active.Store(int64(id))
	rt.logger.Debug("active device changed", zap.Int("device", id))
	return nil
}

func (rt *Runtime) checkDevice(id int) error {
	if id < device.Host || id >= rt.backend.Devices() {
		return xerrors.Conditionf("device %d out of range [%d, %d)", id, device.Host, rt.backend.Devices())
	}
	return nil
}

// PriorityRange returns the least and the greatest supported stream priority.
func (rt *Runtime) PriorityRange() (least, greatest int) {
	return rt.priorityLeast, rt.priorityGreatest
}

func (rt *Runtime) Verbosity() int {
	return int(rt.verbosity.Load())
}

// SetVerbosity changes the diagnostic level: 0 reports errors, 1 warnings,
// higher or negative values everything.
func (rt *Runtime) SetVerbosity(v int) {
	rt.verbosity.Store(int64(v))
	rt.applyVerbosity(v)
}

func (rt *Runtime) applyVerbosity(v int) {
	leveled, ok := rt.logger.(interface{ SetLevel(string) error })
	if !ok {
		return
	}
	if err := leveled.SetLevel(logger.LevelForVerbosity(v)); err != nil {
		rt.logger.Warn("failed to apply verbosity", zap.Int("verbosity", v), zap.Error(err))
	}
}

// signal issues the next signal of device id.
func (rt *Runtime) signal(id int) device.Signal {
	return device.Signal(rt.signals[id+1].Add(1))
}

// enqueue publishes item on the queue of s, or on the global queue.
func (rt *Runtime) enqueue(s *Stream, item *workItem) (*workqueue.Entry, error) {
	rt.gate.RLock()
	defer rt.gate.RUnlock()

	if rt.closed.Load() {
		return nil, ErrClosed
	}
	if err := rt.sched.start(); err != nil {
		return nil, err
	}

	q := rt.global
	if s != nil {
		q = s.queue
	}
	return q.Push(item), nil
}

// Close stops the scheduler, reports streams that were never destroyed and
// closes the backend. Work still queued when Close is called is discarded and
// its waiters observe ErrClosed. When ctx ends before the scheduler stopped,
// Close returns the context error and may be called again.
func (rt *Runtime) Close(ctx context.Context) error {
	rt.gate.Lock()
	rt.closed.Store(true)
	rt.gate.Unlock()

	rt.closeMu.Lock()
	defer rt.closeMu.Unlock()
	if rt.shutdown {
		return nil
	}

	if err := rt.sched.stop(ctx); err != nil {
		return err
	}
	rt.shutdown = true

	for _, s := range rt.registry.live(allDevices) {
		rt.logger.Warn("dangling stream",
			zap.String("stream", s.name),
			zap.String("id", s.id.String()),
			zap.Int("device", s.device))
		rt.registry.unregister(s)
	}
	return rt.backend.Close()
}
