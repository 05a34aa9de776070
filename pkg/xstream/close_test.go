package xstream

import (
	"context"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/openfga/xstream/internal/mocks"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/device/host"
	"github.com/openfga/xstream/pkg/logger"
)

func nop(int, []unsafe.Pointer, []uint64) {}

// holder returns a kernel that blocks until release is called, and a channel
// that is closed once the kernel runs.
func holder() (func(int, []unsafe.Pointer, []uint64), <-chan struct{}, func()) {
	running := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	fn := func(int, []unsafe.Pointer, []uint64) {
		once.Do(func() { close(running) })
		<-gate
	}
	return fn, running, func() { close(gate) }
}

func TestCloseSettlesQueuedWork(t *testing.T) {
	l, logs := logger.NewObserverLogger("warn")
	rt := newRuntime(t, WithLogger(l))
	ctx := context.Background()
	h := newStream(t, rt, device.Host)
	d := newStream(t, rt, 0)

	block, running, release := holder()
	require.NoError(t, rt.Call(ctx, block, nil, h, 0))
	<-running

	callErr := make(chan error, 1)
	go func() { callErr <- rt.Call(ctx, nop, nil, h, CallWait) }()
	waitErr := make(chan error, 1)
	go func() { waitErr <- d.Wait(ctx) }()
	require.Eventually(t, func() bool {
		return h.queue.Pending() == 2 && d.queue.Pending() == 1
	}, time.Second, time.Millisecond)

	closeErr := make(chan error, 1)
	go func() { closeErr <- rt.Close(ctx) }()
	require.Eventually(t, func() bool { return rt.global.Pending() == 1 }, time.Second, time.Millisecond)
	release()

	require.NoError(t, <-closeErr)
	require.ErrorIs(t, <-callErr, ErrClosed)
	require.ErrorIs(t, <-waitErr, ErrClosed)
	require.Equal(t, 2, logs.FilterMessage("abandoned work items").Len())
	require.Zero(t, h.queue.Len())
	require.Zero(t, d.queue.Len())
}

func TestCloseRacesWithCallers(t *testing.T) {
	for i := 0; i < 50; i++ {
		b, err := host.New(host.WithDevices(1), host.WithWorkers(2))
		require.NoError(t, err)
		rt, err := New(WithBackend(b), WithBackoff(fast), WithQueueSize(64))
		require.NoError(t, err)

		s, err := rt.NewStream(0, 0, "")
		require.NoError(t, err)
		h, err := rt.NewStream(device.Host, 0, "")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		targets := []*Stream{s, h, nil}
		errs := make(chan error, 8)
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			target := targets[g%len(targets)]
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					if err := rt.Call(ctx, nop, nil, target, CallWait); err != nil {
						errs <- err
						return
					}
				}
			}()
		}

		time.Sleep(time.Millisecond)
		require.NoError(t, rt.Close(ctx))
		wg.Wait()
		cancel()
		close(errs)

		for err := range errs {
			require.ErrorIs(t, err, ErrClosed)
		}
	}
}

func TestCloseResumesAfterContextError(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	backend.EXPECT().Devices().Return(1).AnyTimes()
	backend.EXPECT().Name().Return("mock").AnyTimes()
	backend.EXPECT().Close().Return(nil)

	l, logs := logger.NewObserverLogger("warn")
	rt, err := New(WithBackend(backend), WithBackoff(fast), WithLogger(l))
	require.NoError(t, err)
	ctx := context.Background()

	h, err := rt.NewStream(device.Host, 0, "held")
	require.NoError(t, err)

	block, running, release := holder()
	require.NoError(t, rt.Call(ctx, block, nil, h, 0))
	<-running

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, rt.Close(short), context.DeadlineExceeded)
	require.Zero(t, logs.FilterMessage("dangling stream").Len())
	require.ErrorIs(t, rt.Call(ctx, nop, nil, h, 0), ErrClosed)

	release()
	require.NoError(t, rt.Close(ctx))
	require.Equal(t, 1, logs.FilterMessage("dangling stream").Len())
	require.NoError(t, rt.Close(ctx))
}
