// Package locks provides a fixed pool of mutexes selected by hashing a key.
// Objects that need occasional mutual exclusion (streams, events) borrow a
// lock from the pool instead of embedding one.
package locks

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const DefaultPoolSize = 16

type Pool struct {
	mu []sync.Mutex
}

// NewPool returns a pool of n mutexes. Non-positive n selects DefaultPoolSize.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = DefaultPoolSize
	}
	return &Pool{mu: make([]sync.Mutex, n)}
}

func (p *Pool) Len() int {
	return len(p.mu)
}

// For returns the mutex guarding key. Equal keys always map to the same mutex.
func (p *Pool) For(key string) *sync.Mutex {
	return &p.mu[xxhash.Sum64String(key)%uint64(len(p.mu))]
}

// ForAddr returns the mutex guarding an address-like key such as a handle id.
func (p *Pool) ForAddr(addr uintptr) *sync.Mutex {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(addr))
	return &p.mu[xxhash.Sum64(b[:])%uint64(len(p.mu))]
}

// With runs fn while holding the mutex guarding key.
func (p *Pool) With(key string, fn func()) {
	m := p.For(key)
	m.Lock()
	defer m.Unlock()
	fn()
}
