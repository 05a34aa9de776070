package workqueue

import (
	"context"
	"sync/atomic"

	"github.com/openfga/xstream/internal/backoff"
	xerrors "github.com/openfga/xstream/internal/errors"
)

// Flags select how a work item is executed.
type Flags uint32

const (
	// FlagWait makes the caller block until the item settled.
	FlagWait Flags = 1 << iota
	// FlagNative runs the item on the host, ordered after the stream's device work.
	FlagNative
	// FlagDevice takes the device id from the first argument.
	FlagDevice
	// FlagEvent marks an event record.
	FlagEvent
	// FlagLoop keeps the item at the front of its queue until it clears the flag.
	FlagLoop
)

func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

const (
	StatusNone      = int32(xerrors.StatusNone)
	StatusRuntime   = int32(xerrors.StatusRuntime)
	StatusCondition = int32(xerrors.StatusCondition)
	StatusPending   = int32(1)
)

// Item is a unit of work owned by exactly one entry.
type Item interface {
	Run(e *Entry)
	Flags() Flags
}

type terminator struct{}

func (terminator) Run(*Entry)   {}
func (terminator) Flags() Flags { return 0 }

// Terminate is the sentinel item that stops the consumer.
var Terminate Item = terminator{}

// Entry is one published item together with its completion status. An entry
// outlives its ring slot, so holding one after it retired is safe.
type Entry struct {
	queue    *Queue
	ticket   uint64
	item     Item
	terminal bool
	status   atomic.Int32
	cause    atomic.Pointer[error]
	retired  atomic.Bool
}

// Push moves item into the entry and makes it visible to the consumer.
func (e *Entry) Push(item Item) {
	s := &e.queue.slots[e.ticket&e.queue.mask]
	e.item = item
	e.terminal = item == Terminate
	e.status.Store(StatusPending)
	s.entry.Store(e)
	s.seq.Store(e.ticket + 1)
}

func (e *Entry) Queue() *Queue {
	return e.queue
}

func (e *Entry) Ticket() uint64 {
	return e.ticket
}

// Item returns the item while the entry is queued. Only the consumer may call it.
func (e *Entry) Item() Item {
	return e.item
}

// Valid is false for the terminator entry.
func (e *Entry) Valid() bool {
	return !e.terminal
}

func (e *Entry) Status() int32 {
	return e.status.Load()
}

// Err maps the current status onto the error taxonomy. A pending entry has no error.
func (e *Entry) Err() error {
	status := e.status.Load()
	if status == StatusPending {
		return nil
	}
	if cause := e.cause.Load(); cause != nil {
		return *cause
	}
	return xerrors.FromStatus(int(status))
}

func (e *Entry) Retired() bool {
	return e.retired.Load()
}

// Settled reports whether the entry retired and its work finished.
func (e *Entry) Settled() bool {
	return e.retired.Load() && e.status.Load() != StatusPending
}

// Settle records the final status of the work. Only the first call wins.
func (e *Entry) Settle(status int32) bool {
	if status == StatusPending {
		return false
	}
	return e.status.CompareAndSwap(StatusPending, status)
}

// SettleErr settles the entry with the status matching err.
func (e *Entry) SettleErr(err error) bool {
	if !e.Settle(int32(xerrors.Status(err))) {
		return false
	}
	if err != nil {
		e.cause.Store(&err)
	}
	return true
}

// Execute runs the item. A panic settles the entry with StatusRuntime.
func (e *Entry) Execute() {
	if e.item == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.Settle(StatusRuntime)
			e.queue.logger.Error("work item panicked", zapPanic(r)...)
		}
	}()
	e.item.Run(e)
}

// Pop retires the entry and releases its ring slot unless the item is looping.
// It reports whether the entry was retired. Only the consumer may call Pop.
func (e *Entry) Pop() bool {
	if e.item != nil && !e.terminal && e.item.Flags().Has(FlagLoop) {
		return false
	}
	e.retire()
	return true
}

// Discard settles the entry with err without running its item and retires it,
// looping or not. Only the consumer may call Discard.
func (e *Entry) Discard(err error) {
	e.SettleErr(err)
	e.retire()
}

func (e *Entry) retire() {
	e.item = nil
	e.retired.Store(true)
	e.queue.release(e)
}

// Wait blocks until the entry retired and, with settled, until its work
// finished. A context error ends the wait, not the work.
func (e *Entry) Wait(ctx context.Context, settled bool) (int32, error) {
	done := e.Retired
	if settled {
		done = e.Settled
	}
	if err := backoff.Until(ctx, e.queue.policy, done); err != nil {
		return e.status.Load(), err
	}
	return e.status.Load(), nil
}
