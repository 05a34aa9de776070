// Package workqueue implements the bounded multi-producer, single-consumer
// ring that backs every stream. Producers reserve a ticket, wait for the ring
// slot of that ticket to be released and publish an item into it. The single
// consumer executes the front entry and pops it, which releases the slot for
// the producer one lap later.
package workqueue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/openfga/xstream/internal/backoff"
	"github.com/openfga/xstream/internal/bitutil"
	"github.com/openfga/xstream/internal/build"
	"github.com/openfga/xstream/pkg/logger"
)

const DefaultCapacity = 2048

var ErrInvalidSize = errors.New("work queue size must be a power of two")

var stallCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: build.ProjectName,
	Subsystem: "workqueue",
	Name:      "stalls_total",
	Help:      "The total number of enqueue operations that waited for a busy ring slot.",
})

type slot struct {
	seq   atomic.Uint64
	entry atomic.Pointer[Entry]
}

type Queue struct {
	slots  []slot
	mask   uint64
	head   atomic.Uint64
	tail   atomic.Uint64
	policy backoff.Policy
	logger logger.Logger
	name   string
}

type Option func(*Queue)

func WithBackoff(p backoff.Policy) Option {
	return func(q *Queue) {
		q.policy = p
	}
}

func WithLogger(l logger.Logger) Option {
	return func(q *Queue) {
		q.logger = l
	}
}

// WithName labels the queue in log messages.
func WithName(name string) Option {
	return func(q *Queue) {
		q.name = name
	}
}

// New returns a queue with room for capacity in-flight entries. The value of
// capacity must be a power of two.
func New(capacity int, opts ...Option) (*Queue, error) {
	if !bitutil.PowerOfTwo(capacity) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, capacity)
	}

	q := &Queue{
		slots:  make([]slot, capacity),
		mask:   uint64(capacity - 1),
		policy: backoff.Default(),
		logger: logger.NewNoopLogger(),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Must returns a new queue, or panics if capacity is invalid.
func Must(capacity int, opts ...Option) *Queue {
	q, err := New(capacity, opts...)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Queue) Capacity() int {
	return len(q.slots)
}

// Allocate reserves the next ticket and blocks until its ring slot is free.
// The returned entry is invisible to the consumer until Entry.Push is called.
// Allocation cannot be canceled: a full ring is the only backpressure.
func (q *Queue) Allocate() *Entry {
	ticket := q.head.Add(1) - 1
	s := &q.slots[ticket&q.mask]

	if s.seq.Load() != ticket {
		stallCounter.Inc()
		q.logger.Warn("queuing work is stalled",
			zap.String("queue", q.name),
			zap.Uint64("ticket", ticket),
			zap.Int("capacity", len(q.slots)))

		// context.Background never fails, so neither does Until.
		_ = backoff.Until(context.Background(), q.policy, func() bool {
			return s.seq.Load() == ticket
		})
	}

	e := &Entry{queue: q, ticket: ticket}
	e.status.Store(StatusPending)
	return e
}

// Push allocates an entry and publishes item into it.
func (q *Queue) Push(item Item) *Entry {
	e := q.Allocate()
	e.Push(item)
	return e
}

// Front returns the oldest published entry, or nil when the queue is empty.
// Only the consumer may call Front.
func (q *Queue) Front() *Entry {
	tail := q.tail.Load()
	s := &q.slots[tail&q.mask]
	if s.seq.Load() != tail+1 {
		return nil
	}
	return s.entry.Load()
}

// Back returns the newest published entry, or nil. Tickets that are allocated
// but not yet published are skipped.
func (q *Queue) Back() *Entry {
	tail := q.tail.Load()
	for ticket := q.head.Load(); ticket > tail; ticket-- {
		s := &q.slots[(ticket-1)&q.mask]
		if s.seq.Load() != ticket {
			continue
		}
		if e := s.entry.Load(); e != nil && e.ticket == ticket-1 {
			return e
		}
	}
	return nil
}

// Len is the number of allocated but not yet consumed tickets.
func (q *Queue) Len() int {
	return int(q.head.Load() - q.tail.Load())
}

// Pending counts the published entries that are waiting for the consumer.
func (q *Queue) Pending() int {
	n := 0
	for i := range q.slots {
		if q.slots[i].entry.Load() != nil {
			n++
		}
	}
	return n
}

// Drain discards every published entry with err and returns how many it
// discarded. It stops at the first ticket that is allocated but not yet
// published. Only the consumer may call Drain.
func (q *Queue) Drain(err error) int {
	n := 0
	for e := q.Front(); e != nil; e = q.Front() {
		e.Discard(err)
		n++
	}
	return n
}

func (q *Queue) release(e *Entry) {
	s := &q.slots[e.ticket&q.mask]
	s.entry.Store(nil)
	s.seq.Store(e.ticket + uint64(len(q.slots)))
	q.tail.Add(1)
}
