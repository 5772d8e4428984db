// Package watch implements file-signal IPC: a second launch of the
// binary drops a well-known file into a signal directory, and the
// already-running instance's Watcher turns file-create events into
// Kernel commands.
package watch

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Kind identifies a single signal. Flag kinds carry no payload; payload
// kinds encode a value in the file's contents.
type Kind int

const (
	Toggle Kind = iota
	Pause
	Play
	Next
	Previous
	Stop
	Shuffle
	RepeatSong
	RepeatQueue
	RepeatOff
	Volume
	Seek
	SeekForward
	SeekBackward
	Index
	Skip
	Back
	Clear
)

var filenames = map[Kind]string{
	Toggle:      "toggle",
	Pause:       "pause",
	Play:        "play",
	Next:        "next",
	Previous:    "previous",
	Stop:        "stop",
	Shuffle:     "shuffle",
	RepeatSong:  "repeat_song",
	RepeatQueue: "repeat_queue",
	RepeatOff:   "repeat_off",
	Volume:      "volume",
	Seek:        "seek",
	SeekForward: "seek_forward",
	SeekBackward: "seek_backward",
	Index:       "index",
	Skip:        "skip",
	Back:        "back",
	Clear:       "clear",
}

var kindsByFilename = func() map[string]Kind {
	m := make(map[string]Kind, len(filenames))
	for k, name := range filenames {
		m[name] = k
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := filenames[k]; ok {
		return name
	}
	return "unknown"
}

func (k Kind) isPayload() bool {
	switch k {
	case Volume, Seek, SeekForward, SeekBackward, Index, Skip, Back, Clear:
		return true
	default:
		return false
	}
}

// Signal is a single decoded command ready to be handed to the Kernel.
type Signal struct {
	Kind    Kind
	Payload uint64 // Volume/Seek/SeekForward/SeekBackward/Index/Skip/Back
	Bool    bool   // Clear
}

func path(dir string, k Kind) string {
	return filepath.Join(dir, k.String())
}

// WriteFlag drops a zero-byte signal file for a flag-class Kind. Used by
// cmd/festivald's IPC-only invocations (--toggle, --next, ...).
func WriteFlag(dir string, k Kind) error {
	if k.isPayload() {
		return errors.Errorf("watch: %s is not a flag signal", k)
	}
	return atomicCreate(path(dir, k), nil)
}

// WritePayload drops a signal file carrying a fixed-width binary value.
func WritePayload(dir string, k Kind, value uint64) error {
	if !k.isPayload() || k == Clear {
		return errors.Errorf("watch: %s does not take a uint64 payload", k)
	}
	if k == Volume {
		if value > 100 {
			value = 100
		}
		return atomicCreate(path(dir, k), []byte{byte(value)})
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	return atomicCreate(path(dir, k), buf)
}

// WriteClear drops the Clear signal, whose single-byte payload carries
// whether playback should keep going once the queue is emptied.
func WriteClear(dir string, keepPlaying bool) error {
	var b byte
	if keepPlaying {
		b = 1
	}
	return atomicCreate(path(dir, Clear), []byte{b})
}

// atomicCreate writes contents to a temp file in dir and renames it into
// place, so the watcher never observes a partially written signal file.
func atomicCreate(dst string, contents []byte) error {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".signal-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp signal file in %s", dir)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "writing signal file %s", dst)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "closing signal file %s", dst)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "renaming signal file into %s", dst)
	}
	return nil
}

// decodePayload parses a payload signal's file contents.
func decodePayload(k Kind, data []byte) (Signal, error) {
	switch k {
	case Volume:
		if len(data) < 1 {
			return Signal{}, errors.Errorf("watch: %s signal file empty", k)
		}
		v := data[0]
		if v > 100 {
			v = 100
		}
		return Signal{Kind: k, Payload: uint64(v)}, nil
	case Clear:
		if len(data) < 1 {
			return Signal{}, errors.Errorf("watch: %s signal file empty", k)
		}
		return Signal{Kind: k, Bool: data[0] != 0}, nil
	default:
		if len(data) < 8 {
			return Signal{}, errors.Errorf("watch: %s signal file too short", k)
		}
		return Signal{Kind: k, Payload: binary.BigEndian.Uint64(data)}, nil
	}
}
