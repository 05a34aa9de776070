package xstream

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/internal/workqueue"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/kernel"
	"github.com/openfga/xstream/pkg/signature"
	"github.com/openfga/xstream/pkg/telemetry"
)

// Call enqueues fn with the arguments of sig on s, or on the global queue
// when s is nil. The signature is copied, so sig may be reused right away;
// input scalars are captured by value, all other arguments by address.
//
// With CallWait, Call returns once fn finished and reports its status.
// Otherwise it returns immediately with the failure already known, if any.
func (rt *Runtime) Call(ctx context.Context, fn kernel.Func, sig *signature.Signature, s *Stream, flags Flags) error {
	return rt.call(ctx, "call", fn, sig, s, flags)
}

// CallKernel is Call for a kernel registered under name in Kernels.
func (rt *Runtime) CallKernel(ctx context.Context, name string, sig *signature.Signature, s *Stream, flags Flags) error {
	fn, err := rt.kernels.Lookup(name)
	if err != nil {
		return err
	}
	return rt.call(ctx, name, fn, sig, s, flags)
}

func (rt *Runtime) call(ctx context.Context, kind string, fn kernel.Func, sig *signature.Signature, s *Stream, flags Flags) error {
	ctx, span := rt.tracer.Start(ctx, "xstream.Call", trace.WithAttributes(
		attribute.String("kernel", kind),
		attribute.Int("flags", int(flags)),
	))
	defer span.End()

	if fn == nil {
		err := xerrors.Conditionf("call without a function")
		telemetry.TraceError(span, err)
		return err
	}
	if s != nil {
		span.SetAttributes(attribute.String("stream", s.name))
	}

	item := &workItem{
		rt:     rt,
		kind:   kind,
		stream: s,
		flags:  flags &^ (workqueue.FlagEvent | workqueue.FlagLoop),
	}
	if sig != nil {
		item.sig = *sig
	}
	item.body = func(w *workItem, e *workqueue.Entry, id int, pending device.Signal) {
		argc, ptrs, sizes, err := w.marshal()
		if err != nil {
			w.settle(e, err)
			return
		}
		w.offload(e, id, pending, func() error {
			fn(argc, ptrs, sizes)
			return nil
		})
	}

	e, err := rt.enqueue(s, item)
	if err != nil {
		telemetry.TraceError(span, err)
		return err
	}

	if flags.Has(CallWait) {
		if _, err := e.Wait(ctx, true); err != nil {
			telemetry.TraceError(span, err)
			return err
		}
	}
	if err := e.Err(); err != nil {
		telemetry.TraceError(span, err)
		return err
	}
	return nil
}
