package xstream

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/openfga/xstream/internal/backoff"
	"github.com/openfga/xstream/internal/workqueue"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/logger"
	"github.com/openfga/xstream/pkg/telemetry"
)

const (
	// MaxDevices bounds the devices a runtime can address.
	MaxDevices = 4
	// DefaultStreamsPerDevice is the registry capacity per device.
	DefaultStreamsPerDevice = 32
	// DefaultQueueSize is the ring capacity of every stream and of the global queue.
	DefaultQueueSize = workqueue.DefaultCapacity
)

type Option func(*Runtime)

func WithLogger(l logger.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithBackend sets the device backend. The runtime closes it on Close.
func WithBackend(b device.Backend) Option {
	return func(rt *Runtime) {
		rt.backend = b
	}
}

// WithBackoff sets the policy of every blocking wait.
func WithBackoff(p backoff.Policy) Option {
	return func(rt *Runtime) {
		rt.policy = p
	}
}

// WithQueueSize sets the ring capacity of the work queues. It must be a power of two.
func WithQueueSize(n int) Option {
	return func(rt *Runtime) {
		rt.queueSize = n
	}
}

func WithStreamsPerDevice(n int) Option {
	return func(rt *Runtime) {
		rt.streamsPerDevice = n
	}
}

// WithPriorityRange sets the supported stream priorities. Numerically
// smaller values are higher priorities, so greatest <= least.
func WithPriorityRange(least, greatest int) Option {
	return func(rt *Runtime) {
		rt.priorityLeast = least
		rt.priorityGreatest = greatest
	}
}

// WithVerbosity sets the level of the logger from a verbosity, see SetVerbosity.
// Without it the logger keeps its own level.
func WithVerbosity(v int) Option {
	return func(rt *Runtime) {
		rt.verbosity.Store(int64(v))
		rt.verbositySet = true
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(rt *Runtime) {
		rt.tracer = tp.Tracer(telemetry.TracerName)
	}
}
