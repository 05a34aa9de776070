package xstream

import (
	"context"
	"errors"
	"time"
	"unsafe"

	"go.uber.org/zap"

	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/internal/workqueue"
	"github.com/openfga/xstream/pkg/device"
	"github.com/openfga/xstream/pkg/signature"
)

// Flags select how Call executes a kernel.
type Flags = workqueue.Flags

const (
	// CallWait makes Call block until the kernel finished.
	CallWait = workqueue.FlagWait
	// CallNative runs the kernel on the host, after the device work of its stream.
	CallNative = workqueue.FlagNative
	// CallDevice takes the device from the first argument, an i32 or i64 scalar.
	CallDevice = workqueue.FlagDevice
)

// body performs the work of an item once the scheduler resolved its device
// and the signal it has to wait for.
type body func(w *workItem, e *workqueue.Entry, id int, pending device.Signal)

// workItem is owned by the queue entry it was pushed into.
type workItem struct {
	rt     *Runtime
	kind   string
	stream *Stream
	flags  workqueue.Flags
	sig    signature.Signature
	body   body
	start  time.Time
}

var _ workqueue.Item = (*workItem)(nil)

func (w *workItem) Flags() workqueue.Flags {
	return w.flags
}

func (w *workItem) Run(e *workqueue.Entry) {
	if w.start.IsZero() {
		w.start = time.Now()
	}

	id, err := w.device()
	if err != nil {
		w.settle(e, err)
		return
	}

	w.body(w, e, id, w.pending(id))
}

// pending is the signal that work of the item on device id must wait for.
// Stream-less work is ordered per device through the runtime.
func (w *workItem) pending(id int) device.Signal {
	switch {
	case w.stream != nil:
		return device.Signal(w.stream.pending.Load())
	case id >= 0:
		return device.Signal(w.rt.globalPending[id].Load())
	default:
		return 0
	}
}

func (w *workItem) setPending(id int, sig device.Signal) {
	if w.stream != nil {
		w.stream.pending.Store(uint64(sig))
		return
	}
	w.rt.globalPending[id].Store(uint64(sig))
}

func (w *workItem) device() (int, error) {
	switch {
	case w.stream != nil:
		return w.stream.device, nil
	case w.flags.Has(workqueue.FlagDevice):
		arg, err := w.sig.Arg(0)
		if err != nil {
			return 0, err
		}
		id, err := scalarInt(arg)
		if err != nil {
			return 0, err
		}
		return id, w.rt.checkDevice(id)
	default:
		return w.rt.ActiveDevice(), nil
	}
}

func scalarInt(arg *signature.Argument) (int, error) {
	if arg.Dims() != 0 || arg.Data() == nil {
		return 0, xerrors.Conditionf("device argument must be a scalar")
	}
	switch arg.Type() {
	case signature.I32:
		return int(*(*int32)(arg.Data())), nil
	case signature.I64:
		return int(*(*int64)(arg.Data())), nil
	default:
		return 0, xerrors.Conditionf("device argument of type %s is not an integer", arg.Type())
	}
}

// offload runs task on device id after the pending signal. Host work and
// native calls run inline on the scheduler; everything else is launched on
// the backend under a new signal that becomes the stream's pending signal.
// The entry settles when task finished.
func (w *workItem) offload(e *workqueue.Entry, id int, pending device.Signal, task func() error) {
	task = guard(task)

	if id < 0 || w.flags.Has(workqueue.FlagNative) {
		if id >= 0 && pending != 0 {
			if err := w.rt.backend.Wait(context.Background(), id, pending); err != nil {
				w.settle(e, err)
				return
			}
		}
		w.settle(e, task())
		return
	}

	sig := w.rt.signal(id)
	err := w.rt.backend.Launch(id, sig, pending, task, func(err error) {
		w.settle(e, err)
	})
	if err != nil {
		w.settle(e, err)
		return
	}
	w.setPending(id, sig)
}

func (w *workItem) settle(e *workqueue.Entry, err error) {
	if !e.SettleErr(err) {
		return
	}
	status := e.Status()
	workItemsCounter.WithLabelValues(w.kind, statusLabel(status)).Inc()
	workItemDurationHistogram.WithLabelValues(w.kind).Observe(float64(time.Since(w.start).Microseconds()) / 1000)

	if err != nil {
		fields := []zap.Field{zap.String("kind", w.kind), zap.Error(err)}
		if w.stream != nil {
			if !w.flags.Has(workqueue.FlagWait) {
				w.stream.fail(err)
			}
			fields = append(fields, zap.String("stream", w.stream.name))
		}
		w.rt.logger.Warn("work item failed", fields...)
	}
}

// guard turns a panic of task into an error. Condition errors raised by
// kernel argument checks keep their class; anything else is a runtime error.
func guard(task func() error) func() error {
	return func() (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if perr, ok := r.(error); ok && errors.Is(perr, xerrors.ErrCondition) {
				err = perr
				return
			}
			err = xerrors.Runtimef("kernel panicked: %v", r)
		}()
		if task == nil {
			return nil
		}
		return task()
	}
}

// newMarker returns an item that settles once the prior work of its stream
// finished.
func newMarker(rt *Runtime, kind string, s *Stream, flags workqueue.Flags) *workItem {
	return &workItem{
		rt:     rt,
		kind:   kind,
		stream: s,
		flags:  flags,
		body: func(w *workItem, e *workqueue.Entry, id int, pending device.Signal) {
			w.offload(e, id, pending, nil)
		},
	}
}

// marshal lays out the arguments of the item's signature for a kernel.
func (w *workItem) marshal() (int, []unsafe.Pointer, []uint64, error) {
	argc := w.sig.Arity()
	ptrs := make([]unsafe.Pointer, argc)
	sizes := make([]uint64, argc)
	for i := 0; i < argc; i++ {
		arg, err := w.sig.Arg(i)
		if err != nil {
			return 0, nil, nil, err
		}
		size, err := arg.DataSize()
		if err != nil {
			return 0, nil, nil, err
		}
		ptrs[i] = arg.Data()
		sizes[i] = uint64(size)
	}
	return argc, ptrs, sizes, nil
}
