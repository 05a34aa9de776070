package kernel

import (
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"

	xerrors "github.com/openfga/xstream/internal/errors"
)

// Registry maps kernel names to functions and lists them in name order.
type Registry struct {
	mu    sync.RWMutex
	inner *redblacktree.Tree
}

func NewRegistry() *Registry {
	return &Registry{inner: redblacktree.NewWithStringComparator()}
}

// Register adds fn under name. Names are unique.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" || fn == nil {
		return xerrors.Conditionf("kernel registration needs a name and a function")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inner.Get(name); ok {
		return xerrors.Conditionf("kernel %q already registered", name)
	}
	r.inner.Put(name, fn)
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the kernel registered under name.
func (r *Registry) Lookup(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.inner.Get(name)
	if !ok {
		return nil, xerrors.Conditionf("kernel %q not found", name)
	}
	return v.(Func), nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inner.Size()
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, r.inner.Size())
	for _, k := range r.inner.Keys() {
		names = append(names, k.(string))
	}
	return names
}
