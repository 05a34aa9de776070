package xstream

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/openfga/xstream/internal/backoff"
	"github.com/openfga/xstream/internal/workqueue"
)

const schedulerLock = "xstream.scheduler"

// scheduler is the single consumer of every queue of a runtime. It starts on
// the first enqueue and is never restarted once it terminated.
type scheduler struct {
	rt      *Runtime
	started atomic.Bool
	stopped atomic.Bool
	done    chan struct{}
}

func newScheduler(rt *Runtime) *scheduler {
	return &scheduler{rt: rt, done: make(chan struct{})}
}

func (s *scheduler) start() error {
	if s.started.Load() {
		return nil
	}

	mu := s.rt.locks.For(schedulerLock)
	mu.Lock()
	defer mu.Unlock()

	if s.started.Load() {
		return nil
	}
	if s.stopped.Load() {
		return ErrClosed
	}
	s.started.Store(true)
	go s.loop()

	s.rt.logger.Debug("scheduler started")
	return nil
}

// stop enqueues the terminator once and waits for the loop to exit. Calling
// stop again after a context error resumes the wait.
func (s *scheduler) stop(ctx context.Context) error {
	mu := s.rt.locks.For(schedulerLock)
	mu.Lock()
	first := !s.stopped.Swap(true)
	started := s.started.Load()
	mu.Unlock()

	if !started {
		return nil
	}
	if first {
		s.rt.global.Push(workqueue.Terminate)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		s.rt.logger.Debug("scheduler terminated")
		return nil
	}
}

// front returns the next executable entry: the global queue first, then the
// streams in round-robin order starting after last.
func (s *scheduler) front(last *Stream) (*workqueue.Entry, *Stream) {
	if e := s.rt.global.Front(); e != nil {
		return e, last
	}

	reg := s.rt.registry
	var first *Stream
	cursor := last
	for i := 0; i < reg.capacity(); i++ {
		next := reg.schedule(cursor)
		if next == nil {
			return nil, nil
		}
		if first == nil {
			first = next
		} else if next == first {
			break
		}
		if e := next.queue.Front(); e != nil {
			return e, next
		}
		cursor = next
	}
	return nil, last
}

func (s *scheduler) loop() {
	defer close(s.done)

	var last *Stream
	var waiter backoff.Waiter
	idle := func() {
		if waiter == nil {
			waiter = s.rt.policy.Waiter()
		}
		_ = waiter.Pause(context.Background())
	}

	for {
		e, owner := s.front(last)
		last = owner
		if e == nil {
			idle()
			continue
		}

		if !e.Valid() {
			e.Pop()
			s.drain()
			return
		}

		e.Execute()
		if e.Pop() {
			waiter = nil
			continue
		}
		// the front item is looping and not done yet
		idle()
	}
}

// drain settles every entry left behind the terminator with ErrClosed.
func (s *scheduler) drain() {
	if n := s.rt.global.Drain(ErrClosed); n > 0 {
		s.rt.logger.Warn("abandoned work items", zap.String("queue", "global"), zap.Int("pending_items", n))
	}
	for _, st := range s.rt.registry.live(allDevices) {
		if n := st.queue.Drain(ErrClosed); n > 0 {
			s.rt.logger.Warn("abandoned work items", zap.String("queue", st.name), zap.Int("pending_items", n))
		}
	}
}
