package xstream

import (
	"sync"
	"sync/atomic"

	xerrors "github.com/openfga/xstream/internal/errors"
)

// allDevices selects every stream in registry.live.
const allDevices = -2

// registry is the fixed set of slots holding the live streams of a runtime.
// The scheduler reads slots without locking. Registration and removal are
// serialized by mu. A stream's slot index is assigned before the stream is
// published and never changes.
type registry struct {
	slots []atomic.Pointer[Stream]

	mu   sync.Mutex
	next int
}

func newRegistry(capacity int) *registry {
	return &registry{slots: make([]atomic.Pointer[Stream], capacity)}
}

func (r *registry) capacity() int {
	return len(r.slots)
}

// register stores s in the next free slot, searching round-robin from the
// slot after the last allocation.
func (r *registry) register(s *Stream) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.slots)
	for i := 0; i < n; i++ {
		idx := (r.next + i) % n
		if r.slots[idx].Load() == nil {
			s.slot = idx
			r.slots[idx].Store(s)
			r.next = (idx + 1) % n
			registeredStreamsGauge.Inc()
			return nil
		}
	}
	return xerrors.Runtimef("stream registry is full (%d streams)", n)
}

func (r *registry) unregister(s *Stream) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.slots[s.slot].CompareAndSwap(s, nil) {
		return false
	}
	registeredStreamsGauge.Dec()
	return true
}

// schedule returns the first live stream after exclude, wrapping around. With
// a nil exclude the search starts at the first slot. The result is exclude
// itself when it is the only live stream, and nil without live streams.
func (r *registry) schedule(exclude *Stream) *Stream {
	n := len(r.slots)
	start := 0
	if exclude != nil {
		start = exclude.slot + 1
	}
	for i := 0; i < n; i++ {
		if s := r.slots[(start+i)%n].Load(); s != nil {
			return s
		}
	}
	return nil
}

// live returns the registered streams of device id, or all of them.
func (r *registry) live(id int) []*Stream {
	var streams []*Stream
	for i := range r.slots {
		s := r.slots[i].Load()
		if s != nil && (id == allDevices || s.device == id) {
			streams = append(streams, s)
		}
	}
	return streams
}

func (r *registry) len() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].Load() != nil {
			n++
		}
	}
	return n
}
