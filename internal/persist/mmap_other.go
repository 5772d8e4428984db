//go:build !linux && !darwin

package persist

import (
	"os"

	"github.com/pkg/errors"
)

// mmapFile falls back to a plain read on platforms where unix.Mmap is not
// available (Windows has its own mapping syscalls behind golang.org/x/sys/
// windows, which the rest of this module has no other use for; a straight
// read keeps the platform matrix small without adding that dependency just
// for this one path).
func mmapFile(path string) ([]byte, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "persist: read")
	}
	return data, func() {}, nil
}
