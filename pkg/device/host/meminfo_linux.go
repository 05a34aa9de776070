package host

import (
	"golang.org/x/sys/unix"

	xerrors "github.com/openfga/xstream/internal/errors"
	"github.com/openfga/xstream/pkg/device"
)

func systemMemory() (device.MemInfo, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return device.MemInfo{}, xerrors.With(err, xerrors.ErrRuntime)
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return device.MemInfo{
		Free:  uint64(info.Freeram) * unit,
		Total: uint64(info.Totalram) * unit,
	}, nil
}
