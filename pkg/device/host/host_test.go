package host

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/pkg/device"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	b, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, b.Close())
	})
	return b
}

func TestNew(t *testing.T) {
	_, err := New(WithDevices(-1))
	require.ErrorIs(t, err, xerrors.ErrCondition)

	_, err = New(WithWorkers(0))
	require.ErrorIs(t, err, xerrors.ErrCondition)

	b := newBackend(t, WithDevices(2), WithWorkers(3))
	require.Equal(t, 2, b.Devices())
	require.Equal(t, Name, b.Name())
	require.Equal(t, "host(devices=2, workers=3)", b.String())
}

func TestLaunchChainsSignals(t *testing.T) {
	b := newBackend(t, WithDevices(1), WithWorkers(4))

	var mu sync.Mutex
	var order []int
	record := func(i int, delay time.Duration) func() error {
		return func() error {
			time.Sleep(delay)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}
	}

	var wg sync.WaitGroup
	wg.Add(3)
	done := func(error) { wg.Done() }

	require.NoError(t, b.Launch(0, 1, 0, record(1, 20*time.Millisecond), done))
	require.NoError(t, b.Launch(0, 2, 1, record(2, 10*time.Millisecond), done))
	require.NoError(t, b.Launch(0, 3, 2, record(3, 0), done))

	require.NoError(t, b.Wait(context.Background(), 0, 3))
	wg.Wait()

	require.Equal(t, []int{1, 2, 3}, order)
	require.True(t, b.Query(0, 1))
	require.True(t, b.Query(0, 3))
}

func TestLaunchReportsErrors(t *testing.T) {
	b := newBackend(t)

	boom := errors.New("boom")
	results := make(chan error, 2)

	require.NoError(t, b.Launch(0, 1, 0, func() error { return boom }, func(err error) { results <- err }))
	require.ErrorIs(t, <-results, boom)

	require.NoError(t, b.Launch(0, 2, 0, func() error { panic("kernel fault") }, func(err error) { results <- err }))
	require.ErrorIs(t, <-results, xerrors.ErrRuntime)
}

func TestLaunchValidation(t *testing.T) {
	b := newBackend(t, WithDevices(1))

	require.ErrorIs(t, b.Launch(1, 1, 0, nil, nil), xerrors.ErrCondition)
	require.ErrorIs(t, b.Launch(device.Host, 1, 0, nil, nil), xerrors.ErrCondition)
	require.ErrorIs(t, b.Launch(0, 0, 0, nil, nil), xerrors.ErrCondition)

	release := make(chan struct{})
	require.NoError(t, b.Launch(0, 5, 0, func() error { <-release; return nil }, nil))
	require.ErrorIs(t, b.Launch(0, 5, 0, nil, nil), xerrors.ErrCondition)
	require.False(t, b.Query(0, 5))
	close(release)
	require.NoError(t, b.Wait(context.Background(), 0, 5))
}

func TestWaitHonorsContext(t *testing.T) {
	b := newBackend(t)

	release := make(chan struct{})
	require.NoError(t, b.Launch(0, 1, 0, func() error { <-release; return nil }, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, b.Wait(ctx, 0, 1), context.DeadlineExceeded)

	close(release)
	require.NoError(t, b.Wait(context.Background(), 0, 1))
}

func TestCloseRejectsLaunches(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	var ran atomic.Bool
	require.NoError(t, b.Launch(0, 1, 0, func() error {
		time.Sleep(5 * time.Millisecond)
		ran.Store(true)
		return nil
	}, nil))

	require.NoError(t, b.Close())
	require.True(t, ran.Load())
	require.ErrorIs(t, b.Launch(0, 2, 0, nil, nil), xerrors.ErrRuntime)
	require.NoError(t, b.Close())
}

func TestMemory(t *testing.T) {
	b := newBackend(t, WithDevices(1))

	t.Run("aligned_allocation", func(t *testing.T) {
		ptr, err := b.Allocate(0, 100, 256)
		require.NoError(t, err)
		require.Zero(t, uintptr(ptr)%256)
		require.NoError(t, b.Deallocate(0, ptr))
	})

	t.Run("default_alignment", func(t *testing.T) {
		ptr, err := b.Allocate(device.Host, 10, 0)
		require.NoError(t, err)
		require.Zero(t, uintptr(ptr)%DefaultAlignment)
		require.NoError(t, b.Deallocate(device.Host, ptr))
	})

	t.Run("invalid_requests", func(t *testing.T) {
		_, err := b.Allocate(0, 10, 3)
		require.ErrorIs(t, err, xerrors.ErrCondition)
		_, err = b.Allocate(4, 10, 0)
		require.ErrorIs(t, err, xerrors.ErrCondition)

		ptr, err := b.Allocate(0, 0, 0)
		require.NoError(t, err)
		require.Nil(t, ptr)

		x := 1
		require.ErrorIs(t, b.Deallocate(0, unsafe.Pointer(&x)), xerrors.ErrCondition)
		require.NoError(t, b.Deallocate(0, nil))
	})

	t.Run("copy_and_memset", func(t *testing.T) {
		src := []float64{1, 2, 3, 4}
		size := len(src) * 8

		dptr, err := b.Allocate(0, size, 0)
		require.NoError(t, err)
		defer func() { require.NoError(t, b.Deallocate(0, dptr)) }()

		require.NoError(t, b.CopyH2D(0, unsafe.Pointer(&src[0]), dptr, size))

		dst := make([]float64, len(src))
		require.NoError(t, b.CopyD2H(0, dptr, unsafe.Pointer(&dst[0]), size))
		require.Equal(t, src, dst)

		require.NoError(t, b.MemsetZero(0, dptr, size))
		require.NoError(t, b.CopyD2H(0, dptr, unsafe.Pointer(&dst[0]), size))
		require.Equal(t, []float64{0, 0, 0, 0}, dst)

		require.ErrorIs(t, b.CopyH2D(0, nil, dptr, size), xerrors.ErrCondition)
	})

	t.Run("info", func(t *testing.T) {
		info, err := b.Info(0)
		require.NoError(t, err)
		require.LessOrEqual(t, info.Free, info.Total)
	})
}
