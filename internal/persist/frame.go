// Package persist implements the on-disk framing shared by every binary
// state file (Collection, AudioState): a 24-byte literal header, a 1-byte
// major version, and a body whose encoding is owned by the caller. Reads
// go through a memory-mapped file where the platform supports it; writes
// are atomic (write-temp, fsync, rename).
package persist

import (
	"bufio"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Magic is the literal header every framed file begins with.
const Magic = "-----BEGIN FESTIVAL-----"

const magicLen = len(Magic)

// Decoder converts a version's raw body bytes into the current in-memory
// shape. Each historical version gets its own Decoder, so a format change
// is additive: register the new version's encoder as current and keep the
// old Decoder around to upgrade files written by previous releases.
type Decoder func(body []byte) (interface{}, error)

// WriteFramed atomically writes Magic, version and the body produced by
// encode to path: the body is staged in a temp file in the same
// directory, fsynced, then renamed over the destination so readers never
// observe a partial write.
func WriteFramed(path string, version byte, encode func(w *bufio.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "persist: creating %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".festivald-tmp-*")
	if err != nil {
		return errors.Wrap(err, "persist: creating temp file")
	}
	tmpPath := tmp.Name()
	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	if _, err := w.WriteString(Magic); err != nil {
		tmp.Close()
		return errors.Wrap(err, "persist: writing header")
	}
	if err := w.WriteByte(version); err != nil {
		tmp.Close()
		return errors.Wrap(err, "persist: writing version")
	}
	if err := encode(w); err != nil {
		tmp.Close()
		return errors.Wrap(err, "persist: encoding body")
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "persist: flushing body")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "persist: fsync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "persist: closing temp file")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "persist: renaming into place")
	}
	succeeded = true
	return nil
}

// ReadFramed memory-maps path, validates the header, and returns the
// version byte and a copy of the body (safe to keep after the mapping is
// released).
func ReadFramed(path string) (version byte, body []byte, err error) {
	data, release, err := mmapFile(path)
	if err != nil {
		return 0, nil, err
	}
	defer release()

	if len(data) < magicLen+1 {
		return 0, nil, errors.New("persist: file too short to contain a header")
	}
	if string(data[:magicLen]) != Magic {
		return 0, nil, errors.New("persist: missing or corrupt header")
	}
	version = data[magicLen]
	body = append([]byte(nil), data[magicLen+1:]...)
	return version, body, nil
}

// DecodeVersioned looks up the Decoder registered for version and applies
// it to body. Every historical file version must have an entry in
// decoders; there is no implicit fallback, since silently treating an
// unversioned or unknown body as the newest shape risks corrupt decodes.
func DecodeVersioned(version byte, body []byte, decoders map[byte]Decoder) (interface{}, error) {
	d, ok := decoders[version]
	if !ok {
		return nil, errors.Errorf("persist: no decoder registered for version %d", version)
	}
	return d(body)
}

// SavingFlag is a lock-free, process-wide flag set while a WriteFramed
// call for a given file is in flight. Exit sequencing waits for it to
// clear before the process tears down.
type SavingFlag struct {
	v atomic.Bool
}

func (f *SavingFlag) Begin()       { f.v.Store(true) }
func (f *SavingFlag) End()         { f.v.Store(false) }
func (f *SavingFlag) Saving() bool { return f.v.Load() }

// WriteFramedTracked wraps WriteFramed, holding flag set for the duration
// of the write.
func WriteFramedTracked(path string, version byte, encode func(w *bufio.Writer) error, flag *SavingFlag) error {
	flag.Begin()
	defer flag.End()
	return WriteFramed(path, version, encode)
}
