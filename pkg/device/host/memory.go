package host

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/openfga/xstream/internal/bitutil"
	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/pkg/device"
)

// DefaultAlignment is used when Allocate is called with an alignment of 0.
const DefaultAlignment = 64

type allocation struct {
	device int
	size   int
	buf    []byte
}

type memory struct {
	devices int

	mu     sync.Mutex
	blocks map[uintptr]allocation
	used   map[int]uint64
}

func newMemory(devices int) *memory {
	return &memory{
		devices: devices,
		blocks:  make(map[uintptr]allocation),
		used:    make(map[int]uint64),
	}
}

func (m *memory) outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blocks)
}

func (b *Backend) checkMemoryDevice(id int) error {
	if id == device.Host {
		return nil
	}
	return b.checkDevice(id)
}

// Allocate returns size bytes aligned to align. The host (-1) is a valid device.
func (b *Backend) Allocate(id int, size, align int) (unsafe.Pointer, error) {
	if err := b.checkMemoryDevice(id); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, xerrors.Conditionf("negative allocation size %d", size)
	}
	if size == 0 {
		return nil, nil
	}
	if align == 0 {
		align = DefaultAlignment
	}
	if !bitutil.PowerOfTwo(align) {
		return nil, xerrors.Conditionf("alignment %d is not a power of two", align)
	}

	buf := make([]byte, size+align-1)
	base := uintptr(unsafe.Pointer(&buf[0]))
	offset := int((uintptr(align) - base%uintptr(align)) % uintptr(align))
	ptr := unsafe.Pointer(&buf[offset])

	m := b.memory
	m.mu.Lock()
	m.blocks[uintptr(ptr)] = allocation{device: id, size: size, buf: buf}
	m.used[id] += uint64(size)
	m.mu.Unlock()

	b.logger.Debug("allocated device memory",
		zap.Int("device", id),
		zap.Int("size", size),
		zap.Uintptr("ptr", uintptr(ptr)))
	return ptr, nil
}

// Deallocate releases memory returned by Allocate. A nil pointer is ignored.
func (b *Backend) Deallocate(id int, ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}
	m := b.memory
	m.mu.Lock()
	defer m.mu.Unlock()

	block, ok := m.blocks[uintptr(ptr)]
	if !ok {
		return xerrors.Conditionf("0x%x was not allocated by the host backend", uintptr(ptr))
	}
	if block.device != id {
		return xerrors.Conditionf("0x%x belongs to device %d, not %d", uintptr(ptr), block.device, id)
	}
	delete(m.blocks, uintptr(ptr))
	m.used[id] -= uint64(block.size)
	return nil
}

func (b *Backend) MemsetZero(id int, ptr unsafe.Pointer, size int) error {
	if err := b.checkRange(id, ptr, size); err != nil {
		return err
	}
	clear(unsafe.Slice((*byte)(ptr), size))
	return nil
}

func (b *Backend) CopyH2D(id int, src, dst unsafe.Pointer, size int) error {
	return b.copy(id, src, dst, size)
}

func (b *Backend) CopyD2H(id int, src, dst unsafe.Pointer, size int) error {
	return b.copy(id, src, dst, size)
}

func (b *Backend) CopyD2D(id int, src, dst unsafe.Pointer, size int) error {
	return b.copy(id, src, dst, size)
}

func (b *Backend) copy(id int, src, dst unsafe.Pointer, size int) error {
	if err := b.checkMemoryDevice(id); err != nil {
		return err
	}
	if size < 0 {
		return xerrors.Conditionf("negative copy size %d", size)
	}
	if size == 0 {
		return nil
	}
	if src == nil || dst == nil {
		return xerrors.Conditionf("copy with nil pointer")
	}
	copy(unsafe.Slice((*byte)(dst), size), unsafe.Slice((*byte)(src), size))
	return nil
}

func (b *Backend) checkRange(id int, ptr unsafe.Pointer, size int) error {
	if err := b.checkMemoryDevice(id); err != nil {
		return err
	}
	if size < 0 {
		return xerrors.Conditionf("negative size %d", size)
	}
	if ptr == nil && size > 0 {
		return xerrors.Conditionf("nil pointer")
	}
	return nil
}

// Info reports the memory of the machine. The free amount of a simulated
// device is reduced by the memory allocated on it.
func (b *Backend) Info(id int) (device.MemInfo, error) {
	if err := b.checkMemoryDevice(id); err != nil {
		return device.MemInfo{}, err
	}
	info, err := systemMemory()
	if err != nil {
		return device.MemInfo{}, err
	}

	m := b.memory
	m.mu.Lock()
	used := m.used[id]
	m.mu.Unlock()

	if id != device.Host {
		if used > info.Free {
			info.Free = 0
		} else {
			info.Free -= used
		}
	}
	return info, nil
}
