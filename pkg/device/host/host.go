// Package host implements device.Backend in software. Every simulated device
// shares one goroutine pool and device memory is ordinary host memory, which
// makes the backend suitable for tests and for machines without accelerators.
package host

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/openfga/xstream/internal/build"
	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/logger"
)

const (
	DefaultDevices = 1
	Name           = "host"
)

var launchCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: build.ProjectName,
	Subsystem: "host",
	Name:      "launches_total",
	Help:      "The total number of tasks launched on simulated host devices.",
}, []string{"device"})

type key struct {
	device int
	sig    device.Signal
}

type task struct {
	done chan struct{}
	err  error
}

type Backend struct {
	logger  logger.Logger
	devices int
	workers int

	pool *pool.Pool

	mu       sync.Mutex
	inflight map[key]*task
	closed   bool

	memory *memory
}

var _ device.Backend = (*Backend)(nil)

type Option func(*Backend)

// WithDevices sets the number of simulated devices.
func WithDevices(n int) Option {
	return func(b *Backend) {
		b.devices = n
	}
}

// WithWorkers bounds the number of tasks running at once across all devices.
func WithWorkers(n int) Option {
	return func(b *Backend) {
		b.workers = n
	}
}

func WithLogger(l logger.Logger) Option {
	return func(b *Backend) {
		b.logger = l
	}
}

func New(opts ...Option) (*Backend, error) {
	b := &Backend{
		logger:   logger.NewNoopLogger(),
		devices:  DefaultDevices,
		workers:  runtime.GOMAXPROCS(0),
		inflight: make(map[key]*task),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.devices < 0 {
		return nil, xerrors.Conditionf("negative device count %d", b.devices)
	}
	if b.workers < 1 {
		return nil, xerrors.Conditionf("worker count %d must be positive", b.workers)
	}

	b.pool = pool.New().WithMaxGoroutines(b.workers)
	b.memory = newMemory(b.devices)
	return b, nil
}

func (b *Backend) Name() string {
	return Name
}

func (b *Backend) Devices() int {
	return b.devices
}

func (b *Backend) checkDevice(id int) error {
	if id < 0 || id >= b.devices {
		return xerrors.Conditionf("device %d out of range [0, %d)", id, b.devices)
	}
	return nil
}

// Launch submits task to the pool. The pool hands a task to a worker before
// Launch returns, so a task chained on an earlier signal only ever waits for
// work that already holds a worker.
func (b *Backend) Launch(id int, sig, wait device.Signal, fn func() error, done func(error)) error {
	if err := b.checkDevice(id); err != nil {
		return err
	}
	if sig == 0 {
		return xerrors.Conditionf("launch on device %d without a signal", id)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return xerrors.Runtimef("host backend is closed")
	}
	if _, ok := b.inflight[key{id, sig}]; ok {
		b.mu.Unlock()
		return xerrors.Conditionf("signal %d already launched on device %d", sig, id)
	}
	t := &task{done: make(chan struct{})}
	b.inflight[key{id, sig}] = t
	var prev *task
	if wait != 0 {
		prev = b.inflight[key{id, wait}]
	}
	b.mu.Unlock()

	launchCounter.WithLabelValues(strconv.Itoa(id)).Inc()

	b.pool.Go(func() {
		if prev != nil {
			<-prev.done
		}

		t.err = b.run(id, sig, fn)

		b.mu.Lock()
		delete(b.inflight, key{id, sig})
		b.mu.Unlock()
		close(t.done)

		if done != nil {
			done(t.err)
		}
	})
	return nil
}

func (b *Backend) run(id int, sig device.Signal, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("device task panicked",
				zap.Int("device", id),
				zap.Uint64("signal", uint64(sig)),
				zap.Any("panic", r))
			err = xerrors.Runtimef("device %d task panicked: %v", id, r)
		}
	}()
	if fn == nil {
		return nil
	}
	return fn()
}

// Query reports true for signals that are not in flight, including 0.
func (b *Backend) Query(id int, sig device.Signal) bool {
	if sig == 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.inflight[key{id, sig}]
	return !ok
}

func (b *Backend) Wait(ctx context.Context, id int, sig device.Signal) error {
	if sig == 0 {
		return nil
	}
	b.mu.Lock()
	t := b.inflight[key{id, sig}]
	b.mu.Unlock()
	if t == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return t.err
	}
}

// Close waits for every launched task and rejects later launches.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.pool.Wait()

	if leaked := b.memory.outstanding(); leaked > 0 {
		b.logger.Warn("host backend closed with live allocations", zap.Int("allocations", leaked))
	}
	return nil
}

func (b *Backend) String() string {
	return fmt.Sprintf("%s(devices=%d, workers=%d)", Name, b.devices, b.workers)
}
