package xstream

import (
	"context"
	"unsafe"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/internal/workqueue"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/telemetry"
)

// MemInfo reports the free and total memory of device id.
func (rt *Runtime) MemInfo(id int) (device.MemInfo, error) {
	if err := rt.checkDevice(id); err != nil {
		return device.MemInfo{}, err
	}
	return rt.backend.Info(id)
}

// MemAllocate allocates size bytes on device id, aligned to align bytes. An
// alignment of 0 selects the backend default.
func (rt *Runtime) MemAllocate(id, size, align int) (unsafe.Pointer, error) {
	if err := rt.checkDevice(id); err != nil {
		return nil, err
	}
	return rt.backend.Allocate(id, size, align)
}

// MemDeallocate waits for the streams of device id and releases ptr.
func (rt *Runtime) MemDeallocate(ctx context.Context, id int, ptr unsafe.Pointer) error {
	if err := rt.checkDevice(id); err != nil {
		return err
	}
	if ptr == nil {
		return nil
	}
	if err := rt.WaitDevice(ctx, id); err != nil && ctx.Err() != nil {
		return err
	}
	return rt.backend.Deallocate(id, ptr)
}

// MemsetZero clears size bytes at dev on the device of s.
func (rt *Runtime) MemsetZero(ctx context.Context, dev unsafe.Pointer, size int, s *Stream) error {
	if dev == nil && size > 0 {
		return xerrors.Conditionf("memset of a nil pointer")
	}
	return rt.memop(ctx, "memset", s, func(id int) error {
		return rt.backend.MemsetZero(id, dev, size)
	})
}

// MemcpyH2D copies size bytes from host memory to dev on the device of s.
func (rt *Runtime) MemcpyH2D(ctx context.Context, host, dev unsafe.Pointer, size int, s *Stream) error {
	if host == nil || dev == nil || host == dev {
		return xerrors.Conditionf("host to device copy needs distinct non-nil buffers")
	}
	return rt.memop(ctx, "memcpy_h2d", s, func(id int) error {
		return rt.backend.CopyH2D(id, host, dev, size)
	})
}

// MemcpyD2H copies size bytes from dev on the device of s to host memory.
func (rt *Runtime) MemcpyD2H(ctx context.Context, dev, host unsafe.Pointer, size int, s *Stream) error {
	if host == nil || dev == nil || host == dev {
		return xerrors.Conditionf("device to host copy needs distinct non-nil buffers")
	}
	return rt.memop(ctx, "memcpy_d2h", s, func(id int) error {
		return rt.backend.CopyD2H(id, dev, host, size)
	})
}

// MemcpyD2D copies size bytes between two buffers of the device of s.
// Copying a buffer onto itself does nothing.
func (rt *Runtime) MemcpyD2D(ctx context.Context, src, dst unsafe.Pointer, size int, s *Stream) error {
	if src == dst {
		return nil
	}
	if src == nil || dst == nil {
		return xerrors.Conditionf("device to device copy with a nil buffer")
	}
	return rt.memop(ctx, "memcpy_d2d", s, func(id int) error {
		return rt.backend.CopyD2D(id, src, dst, size)
	})
}

// memop enqueues op on s, or on the global queue for the active device. It
// does not wait; failures surface on the next Wait of the stream.
func (rt *Runtime) memop(ctx context.Context, kind string, s *Stream, op func(id int) error) error {
	_, span := rt.tracer.Start(ctx, "xstream."+kind, trace.WithAttributes(attribute.String("op", kind)))
	defer span.End()

	if s != nil {
		span.SetAttributes(attribute.String("stream", s.name))
	}

	item := &workItem{
		rt:     rt,
		kind:   kind,
		stream: s,
	}
	item.body = func(w *workItem, e *workqueue.Entry, id int, pending device.Signal) {
		w.offload(e, id, pending, func() error {
			return op(id)
		})
	}

	if _, err := rt.enqueue(s, item); err != nil {
		telemetry.TraceError(span, err)
		return err
	}
	return nil
}
