// Package device defines the capability a runtime needs from an offload
// target: launching work that completes asynchronously under a signal, and
// managing memory that lives on the target.
package device

//go:generate mockgen -source device.go -destination ../../internal/mocks/mock_device.go -package mocks Backend

import (
	"context"
	"unsafe"
)

// Host is the device id that addresses the host itself.
const Host = -1

// Signal correlates an asynchronous launch with its completion. Signals are
// issued per device, increase monotonically and are never 0.
type Signal uint64

// Executor runs tasks on a device.
type Executor interface {
	// Launch runs task on device id after the work of signal wait completed, and
	// associates the launch with sig. done is called with the task result once
	// it finished. A wait of 0 starts the task without a dependency.
	Launch(id int, sig, wait Signal, task func() error, done func(error)) error

	// Query reports whether the work associated with sig completed.
	Query(id int, sig Signal) bool

	// Wait blocks until the work associated with sig completed.
	Wait(ctx context.Context, id int, sig Signal) error
}

type MemInfo struct {
	Free  uint64
	Total uint64
}

// Memory manages buffers on a device. Pointers returned by Allocate are only
// valid as arguments of the same Memory.
type Memory interface {
	Allocate(id int, size, align int) (unsafe.Pointer, error)
	Deallocate(id int, ptr unsafe.Pointer) error
	MemsetZero(id int, ptr unsafe.Pointer, size int) error
	CopyH2D(id int, src, dst unsafe.Pointer, size int) error
	CopyD2H(id int, src, dst unsafe.Pointer, size int) error
	CopyD2D(id int, src, dst unsafe.Pointer, size int) error
	Info(id int) (MemInfo, error)
}

// Backend bundles everything a runtime needs from a family of devices.
type Backend interface {
	Executor
	Memory

	// Name identifies the backend in logs, for example "host".
	Name() string

	// Devices is the number of addressable devices, excluding the host.
	Devices() int

	// Close waits for outstanding launches and releases the backend.
	Close() error
}
