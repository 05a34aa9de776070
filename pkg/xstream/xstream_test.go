package xstream

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/openfga/xstream/internal/backoff"
	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/device/host"
	"github.com/openfga/xstream/pkg/kernel"
	"github.com/openfga/xstream/pkg/logger"
	"github.com/openfga/xstream/pkg/signature"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fast = &backoff.Tiered{
	SpinCycles:       50,
	YieldCycles:      1000,
	SleepInterval:    50 * time.Microsecond,
	MaxSleepInterval: 500 * time.Microsecond,
}

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()

	b, err := host.New(host.WithDevices(2), host.WithWorkers(4))
	require.NoError(t, err)

	rt, err := New(append([]Option{WithBackend(b), WithBackoff(fast), WithQueueSize(64)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, rt.Close(context.Background()))
	})
	return rt
}

func newStream(t *testing.T, rt *Runtime, id int) *Stream {
	t.Helper()
	s, err := rt.NewStream(id, 0, "")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Destroy(context.Background()))
	})
	return s
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		rt, err := New()
		require.NoError(t, err)
		defer func() { require.NoError(t, rt.Close(context.Background())) }()

		require.Equal(t, host.DefaultDevices, rt.NDevices())
		require.Equal(t, 0, rt.ActiveDevice())
		least, greatest := rt.PriorityRange()
		require.Zero(t, least)
		require.Zero(t, greatest)
	})

	t.Run("invalid_queue_size", func(t *testing.T) {
		_, err := New(WithQueueSize(100))
		require.ErrorIs(t, err, ErrCondition)
	})

	t.Run("inverted_priority_range", func(t *testing.T) {
		_, err := New(WithPriorityRange(0, 5))
		require.ErrorIs(t, err, ErrCondition)
	})

	t.Run("too_many_devices", func(t *testing.T) {
		b, err := host.New(host.WithDevices(MaxDevices + 1))
		require.NoError(t, err)
		defer func() { require.NoError(t, b.Close()) }()

		_, err = New(WithBackend(b))
		require.ErrorIs(t, err, ErrCondition)
	})

	t.Run("host_only", func(t *testing.T) {
		b, err := host.New(host.WithDevices(0))
		require.NoError(t, err)
		rt, err := New(WithBackend(b), WithBackoff(fast))
		require.NoError(t, err)
		defer func() { require.NoError(t, rt.Close(context.Background())) }()

		require.Equal(t, device.Host, rt.ActiveDevice())
	})
}

func TestActiveDevice(t *testing.T) {
	rt := newRuntime(t)

	require.Equal(t, 1, rt.ActiveDevice())
	require.NoError(t, rt.SetActiveDevice(0))
	require.Equal(t, 0, rt.ActiveDevice())
	require.NoError(t, rt.SetActiveDevice(device.Host))
	require.ErrorIs(t, rt.SetActiveDevice(2), ErrCondition)
	require.ErrorIs(t, rt.SetActiveDevice(-2), ErrCondition)
}

func TestVerbosity(t *testing.T) {
	l, logs := logger.NewObserverLogger("debug")
	rt := newRuntime(t, WithLogger(l), WithVerbosity(0))
	require.Equal(t, 0, rt.Verbosity())

	l.Debug("hidden")
	require.Zero(t, logs.FilterMessage("hidden").Len())

	rt.SetVerbosity(2)
	require.Equal(t, 2, rt.Verbosity())
	l.Debug("visible")
	require.Equal(t, 1, logs.FilterMessage("visible").Len())
}

func TestStatus(t *testing.T) {
	require.Equal(t, 0, Status(nil))
	require.Equal(t, -1, Status(ErrRuntime))
	require.Equal(t, -2, Status(xerrors.Conditionf("bad")))
	require.ErrorIs(t, ErrClosed, ErrRuntime)
}

func TestPriorityClamp(t *testing.T) {
	l, logs := logger.NewObserverLogger("debug")
	rt := newRuntime(t, WithLogger(l), WithPriorityRange(10, 0))

	tests := []struct {
		name      string
		requested int
		expected  int
	}{
		{"above_least", 20, 10},
		{"below_greatest", -5, 0},
		{"in_range", 5, 5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := rt.NewStream(0, test.requested, test.name)
			require.NoError(t, err)
			defer func() { require.NoError(t, s.Destroy(context.Background())) }()
			require.Equal(t, test.expected, s.Priority())
		})
	}
	require.Equal(t, 2, logs.FilterMessage("stream priority clamped").Len())

	t.Run("default_range", func(t *testing.T) {
		rt := newRuntime(t)
		s, err := rt.NewStream(0, 7, "")
		require.NoError(t, err)
		defer func() { require.NoError(t, s.Destroy(context.Background())) }()
		require.Zero(t, s.Priority())
	})
}

func TestNewStreamValidation(t *testing.T) {
	rt := newRuntime(t)

	_, err := rt.NewStream(2, 0, "")
	require.ErrorIs(t, err, ErrCondition)

	s := newStream(t, rt, device.Host)
	require.Equal(t, device.Host, s.Device())
	require.NotEmpty(t, s.Name())
	require.NotZero(t, s.ID())
}

func TestRegistryCapacity(t *testing.T) {
	rt := newRuntime(t, WithStreamsPerDevice(1))
	require.Equal(t, MaxDevices, rt.registry.capacity())

	streams := make([]*Stream, 0, MaxDevices)
	for i := 0; i < MaxDevices; i++ {
		s, err := rt.NewStream(0, 0, "")
		require.NoError(t, err)
		streams = append(streams, s)
	}

	_, err := rt.NewStream(0, 0, "")
	require.ErrorIs(t, err, ErrRuntime)

	require.NoError(t, streams[1].Destroy(context.Background()))
	require.NoError(t, streams[1].Destroy(context.Background()))
	s, err := rt.NewStream(0, 0, "reused")
	require.NoError(t, err)
	require.Equal(t, 1, s.slot)
	streams[1] = s

	for _, s := range streams {
		require.NoError(t, s.Destroy(context.Background()))
	}
	require.Zero(t, rt.registry.len())
}

func TestScheduleIsFair(t *testing.T) {
	rt := newRuntime(t)

	var streams []*Stream
	for i := 0; i < 5; i++ {
		streams = append(streams, newStream(t, rt, i%2))
	}
	require.NoError(t, streams[2].Destroy(context.Background()))

	live := map[*Stream]int{}
	var cursor *Stream
	for i := 0; i < 4; i++ {
		cursor = rt.registry.schedule(cursor)
		require.NotNil(t, cursor)
		live[cursor]++
	}
	require.Len(t, live, 4)
	for s, visits := range live {
		require.Equal(t, 1, visits, s.Name())
	}
	require.NotContains(t, live, streams[2])

	// the fifth call starts the next round
	require.Same(t, rt.registry.schedule(nil), rt.registry.schedule(cursor))
}

func TestStreamFIFO(t *testing.T) {
	for _, id := range []int{device.Host, 0} {
		rt := newRuntime(t)
		s := newStream(t, rt, id)

		var mu sync.Mutex
		var order []int32
		record := func(argc int, ptrs []unsafe.Pointer, sizes []uint64) {
			i := kernel.Scalar[int32](ptrs, sizes, 0)
			// jitter the device tasks so reordering would show
			time.Sleep(time.Duration(rand.IntN(50)) * time.Microsecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}

		sig := signature.Must(1)
		for i := int32(0); i < 200; i++ {
			require.NoError(t, signature.InputValue(sig, 0, &i))
			require.NoError(t, rt.Call(context.Background(), record, sig, s, 0))
		}
		require.NoError(t, s.Wait(context.Background()))

		mu.Lock()
		require.Len(t, order, 200)
		for i, v := range order {
			require.Equal(t, int32(i), v)
		}
		mu.Unlock()
	}
}

func TestStreamSignalAndPending(t *testing.T) {
	rt := newRuntime(t)
	s := newStream(t, rt, 0)

	first := s.Signal()
	require.Equal(t, first+1, s.Signal())
	require.Zero(t, s.Pending())

	release := make(chan struct{})
	block := func(int, []unsafe.Pointer, []uint64) { <-release }
	require.NoError(t, rt.Call(context.Background(), block, nil, s, 0))

	require.Eventually(t, func() bool { return s.Pending() != 0 }, time.Second, time.Millisecond)
	close(release)
	require.NoError(t, s.Wait(context.Background()))
	require.Zero(t, s.Pending())
}

func TestStreamWaitHonorsContext(t *testing.T) {
	rt := newRuntime(t)
	s := newStream(t, rt, 0)

	release := make(chan struct{})
	require.NoError(t, rt.Call(context.Background(), func(int, []unsafe.Pointer, []uint64) { <-release }, nil, s, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, s.Wait(context.Background()))
}

func TestCall(t *testing.T) {
	rt := newRuntime(t)
	s := newStream(t, rt, 0)
	ctx := context.Background()

	t.Run("nil_function", func(t *testing.T) {
		require.ErrorIs(t, rt.Call(ctx, nil, nil, s, CallWait), ErrCondition)
	})

	t.Run("output_is_written", func(t *testing.T) {
		var out int64
		sig := signature.Must(1)
		require.NoError(t, signature.OutputValue(sig, 0, &out))

		err := rt.Call(ctx, func(argc int, ptrs []unsafe.Pointer, sizes []uint64) {
			kernel.Store(ptrs, sizes, 0, int64(42))
		}, sig, s, CallWait)
		require.NoError(t, err)
		require.Equal(t, int64(42), out)
	})

	t.Run("input_scalars_are_captured", func(t *testing.T) {
		release := make(chan struct{})
		var seen atomic.Int64

		sig := signature.Must(1)
		v := int64(1)
		require.NoError(t, signature.InputValue(sig, 0, &v))
		require.NoError(t, rt.Call(ctx, func(argc int, ptrs []unsafe.Pointer, sizes []uint64) {
			<-release
			seen.Store(kernel.Scalar[int64](ptrs, sizes, 0))
		}, sig, s, 0))

		v = 2
		require.NoError(t, sig.Reset(1))
		close(release)
		require.NoError(t, s.Wait(ctx))
		require.Equal(t, int64(1), seen.Load())
	})

	t.Run("condition_panic", func(t *testing.T) {
		err := rt.Call(ctx, func(argc int, ptrs []unsafe.Pointer, sizes []uint64) {
			kernel.Require(argc, ptrs, sizes, 3)
		}, nil, s, CallWait)
		require.ErrorIs(t, err, ErrCondition)
	})

	t.Run("runtime_panic", func(t *testing.T) {
		err := rt.Call(ctx, func(int, []unsafe.Pointer, []uint64) {
			panic("device fault")
		}, nil, s, CallWait)
		require.ErrorIs(t, err, ErrRuntime)
		require.NoError(t, s.Wait(ctx))
	})

	t.Run("async_failure_surfaces_on_wait", func(t *testing.T) {
		require.NoError(t, rt.Call(ctx, func(int, []unsafe.Pointer, []uint64) {
			panic("device fault")
		}, nil, s, 0))
		require.ErrorIs(t, s.Wait(ctx), ErrRuntime)
		require.NoError(t, s.Wait(ctx))
	})

	t.Run("named_kernel", func(t *testing.T) {
		var calls atomic.Int32
		require.NoError(t, rt.Kernels().Register("count", func(int, []unsafe.Pointer, []uint64) {
			calls.Add(1)
		}))
		require.NoError(t, rt.CallKernel(ctx, "count", nil, s, CallWait))
		require.Equal(t, int32(1), calls.Load())
		require.ErrorIs(t, rt.CallKernel(ctx, "missing", nil, s, CallWait), ErrCondition)
	})
}

func TestCallDeviceFromArgument(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	noop := func(int, []unsafe.Pointer, []uint64) {}
	sig := signature.Must(1)

	id := int32(0)
	require.NoError(t, signature.InputValue(sig, 0, &id))
	require.NoError(t, rt.Call(ctx, noop, sig, nil, CallWait|CallDevice))

	id = 3
	require.NoError(t, signature.InputValue(sig, 0, &id))
	require.ErrorIs(t, rt.Call(ctx, noop, sig, nil, CallWait|CallDevice), ErrCondition)

	f := 1.0
	require.NoError(t, signature.InputValue(sig, 0, &f))
	require.ErrorIs(t, rt.Call(ctx, noop, sig, nil, CallWait|CallDevice), ErrCondition)
}

func TestNativeCallRunsAfterDeviceWork(t *testing.T) {
	rt := newRuntime(t)
	s := newStream(t, rt, 0)
	ctx := context.Background()

	var done atomic.Bool
	require.NoError(t, rt.Call(ctx, func(int, []unsafe.Pointer, []uint64) {
		time.Sleep(10 * time.Millisecond)
		done.Store(true)
	}, nil, s, 0))

	var sawDone bool
	require.NoError(t, rt.Call(ctx, func(int, []unsafe.Pointer, []uint64) {
		sawDone = done.Load()
	}, nil, s, CallNative|CallWait))
	require.True(t, sawDone)
}

func TestWaitAll(t *testing.T) {
	ctx := context.Background()

	t.Run("without_streams", func(t *testing.T) {
		rt := newRuntime(t)

		var count atomic.Int32
		for i := 0; i < 20; i++ {
			require.NoError(t, rt.Call(ctx, func(int, []unsafe.Pointer, []uint64) {
				time.Sleep(time.Millisecond)
				count.Add(1)
			}, nil, nil, 0))
		}
		require.NoError(t, rt.WaitAll(ctx))
		require.Equal(t, int32(20), count.Load())
	})

	t.Run("with_streams", func(t *testing.T) {
		rt := newRuntime(t)
		a := newStream(t, rt, 0)
		b := newStream(t, rt, 1)

		var count atomic.Int32
		inc := func(int, []unsafe.Pointer, []uint64) {
			time.Sleep(time.Millisecond)
			count.Add(1)
		}
		for i := 0; i < 10; i++ {
			require.NoError(t, rt.Call(ctx, inc, nil, a, 0))
			require.NoError(t, rt.Call(ctx, inc, nil, b, 0))
		}
		require.NoError(t, rt.WaitAll(ctx))
		require.Equal(t, int32(20), count.Load())

		require.NoError(t, rt.Call(ctx, inc, nil, b, 0))
		require.NoError(t, rt.WaitDevice(ctx, 1))
		require.Equal(t, int32(21), count.Load())
		require.ErrorIs(t, rt.WaitDevice(ctx, 5), ErrCondition)
	})
}

func TestClose(t *testing.T) {
	l, logs := logger.NewObserverLogger("warn")
	rt, err := New(WithLogger(l), WithBackoff(fast))
	require.NoError(t, err)

	s, err := rt.NewStream(0, 0, "leaked")
	require.NoError(t, err)
	require.NoError(t, rt.Call(context.Background(), func(int, []unsafe.Pointer, []uint64) {}, nil, s, CallWait))

	require.NoError(t, rt.Close(context.Background()))
	require.NoError(t, rt.Close(context.Background()))

	dangling := logs.FilterMessage("dangling stream")
	require.Equal(t, 1, dangling.Len())
	require.Equal(t, "leaked", dangling.All()[0].ContextMap()["stream"])

	require.ErrorIs(t, rt.Call(context.Background(), func(int, []unsafe.Pointer, []uint64) {}, nil, nil, 0), ErrClosed)
	_, err = rt.NewStream(0, 0, "")
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, s.Destroy(context.Background()))
}

func TestCloseWithoutWork(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	require.NoError(t, rt.Close(context.Background()))
}
