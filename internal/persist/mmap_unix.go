//go:build linux || darwin

package persist

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mmapFile memory-maps path read-only and returns its contents along with
// a release function that unmaps it. Empty files map to a zero-length
// slice (Mmap itself refuses a zero-length mapping).
func mmapFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "persist: open")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, errors.Wrap(err, "persist: stat")
	}
	if info.Size() == 0 {
		return nil, func() {}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Wrap(err, "persist: mmap")
	}

	release := func() {
		_ = unix.Munmap(data)
	}
	return data, release, nil
}
