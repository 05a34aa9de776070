package run

import (
	"context"
	"fmt"
	"math"
	"time"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/openfga/xstream/internal/config"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/kernel/blas"
	"github.com/openfga/xstream/pkg/signature"
	"github.com/openfga/xstream/pkg/xstream"
)

// Summary describes a finished workload.
type Summary struct {
	Streams    int
	Iterations int
	Length     int
	// Kernels is the number of kernels executed, reductions included.
	Kernels int
	// Results holds the dot product computed for every producer.
	Results []float64
	Elapsed time.Duration
}

// producer owns the buffers of one producer stream.
type producer struct {
	stream *xstream.Stream
	device int
	x      []float64
	out    []float64
	dx, dy unsafe.Pointer
}

func (p *producer) expected(iterations int, alpha float64) float64 {
	var dot float64
	for _, x := range p.x {
		dot += x * (1 + float64(iterations)*alpha*x)
	}
	return dot
}

func deviceFor(rt *xstream.Runtime, i int) int {
	if rt.NDevices() == 0 {
		return device.Host
	}
	return i % rt.NDevices()
}

// runWorkload runs one producer goroutine per stream. Every producer uploads
// x and y = 1, applies y = alpha*x + y for the configured iterations and
// downloads y before recording the shared event. A host stream waits for the
// event and reduces every producer with ddot(x, y).
func runWorkload(ctx context.Context, rt *xstream.Runtime, cfg config.WorkloadConfig) (*Summary, error) {
	start := time.Now()
	size := cfg.Length * int(unsafe.Sizeof(float64(0)))

	producers := make([]*producer, cfg.Streams)
	for i := range producers {
		dev := deviceFor(rt, i)
		s, err := rt.NewStream(dev, 0, fmt.Sprintf("producer-%d", i))
		if err != nil {
			return nil, err
		}
		producers[i] = &producer{
			stream: s,
			device: dev,
			x:      make([]float64, cfg.Length),
			out:    make([]float64, cfg.Length),
		}
	}

	consumer, err := rt.NewStream(device.Host, 0, "consumer")
	if err != nil {
		return nil, err
	}

	defer func() {
		for _, p := range producers {
			_ = rt.MemDeallocate(context.Background(), p.device, p.dx)
			_ = rt.MemDeallocate(context.Background(), p.device, p.dy)
			_ = p.stream.Destroy(context.Background())
		}
		_ = consumer.Destroy(context.Background())
	}()

	ev := rt.NewEvent()

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range producers {
		g.Go(func() error {
			return p.produce(gctx, rt, ev, i, size, cfg)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := consumer.WaitEvent(ctx, ev); err != nil {
		return nil, err
	}

	results := make([]float64, len(producers))
	for i, p := range producers {
		if err := reduce(ctx, rt, consumer, p, &results[i]); err != nil {
			return nil, err
		}
	}
	if err := consumer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("reduction failed: %w", err)
	}
	for i, p := range producers {
		if err := p.stream.Wait(ctx); err != nil {
			return nil, fmt.Errorf("producer %d failed: %w", i, err)
		}
	}

	for i, p := range producers {
		want := p.expected(cfg.Iterations, cfg.Alpha)
		if math.Abs(results[i]-want) > 1e-9*math.Max(1, math.Abs(want)) {
			return nil, fmt.Errorf("producer %d computed %v, want %v", i, results[i], want)
		}
	}

	return &Summary{
		Streams:    cfg.Streams,
		Iterations: cfg.Iterations,
		Length:     cfg.Length,
		Kernels:    cfg.Streams * (cfg.Iterations + 1),
		Results:    results,
		Elapsed:    time.Since(start),
	}, nil
}

func (p *producer) produce(ctx context.Context, rt *xstream.Runtime, ev *xstream.Event, i, size int, cfg config.WorkloadConfig) error {
	y := make([]float64, cfg.Length)
	for j := range p.x {
		p.x[j] = float64((i+j)%16 + 1)
		y[j] = 1
	}

	var err error
	if p.dx, err = rt.MemAllocate(p.device, size, 0); err != nil {
		return err
	}
	if p.dy, err = rt.MemAllocate(p.device, size, 0); err != nil {
		return err
	}

	if err := rt.MemcpyH2D(ctx, unsafe.Pointer(&p.x[0]), p.dx, size, p.stream); err != nil {
		return err
	}
	if err := rt.MemcpyH2D(ctx, unsafe.Pointer(&y[0]), p.dy, size, p.stream); err != nil {
		return err
	}
	n, inc, alpha := int32(cfg.Length), int32(1), cfg.Alpha
	sig := signature.Must(6)
	if err := signature.InputValue(sig, 0, &n); err != nil {
		return err
	}
	if err := signature.InputValue(sig, 1, &alpha); err != nil {
		return err
	}
	if err := sig.Input(2, p.dx, signature.F64, 1, []int{cfg.Length}); err != nil {
		return err
	}
	if err := signature.InputValue(sig, 3, &inc); err != nil {
		return err
	}
	if err := sig.InOut(4, p.dy, signature.F64, 1, []int{cfg.Length}); err != nil {
		return err
	}
	if err := signature.InputValue(sig, 5, &inc); err != nil {
		return err
	}

	for it := 0; it < cfg.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := rt.CallKernel(ctx, blas.NameDaxpy, sig, p.stream, 0); err != nil {
			return err
		}
	}

	if err := rt.MemcpyD2H(ctx, p.dy, unsafe.Pointer(&p.out[0]), size, p.stream); err != nil {
		return err
	}
	return ev.Record(p.stream, false)
}

func reduce(ctx context.Context, rt *xstream.Runtime, s *xstream.Stream, p *producer, result *float64) error {
	n, inc := int32(len(p.x)), int32(1)
	sig := signature.Must(6)
	if err := signature.InputValue(sig, 0, &n); err != nil {
		return err
	}
	if err := signature.InputSlice(sig, 1, p.x); err != nil {
		return err
	}
	if err := signature.InputValue(sig, 2, &inc); err != nil {
		return err
	}
	if err := signature.InputSlice(sig, 3, p.out); err != nil {
		return err
	}
	if err := signature.InputValue(sig, 4, &inc); err != nil {
		return err
	}
	if err := signature.OutputValue(sig, 5, result); err != nil {
		return err
	}
	return rt.CallKernel(ctx, blas.NameDdot, sig, s, 0)
}
