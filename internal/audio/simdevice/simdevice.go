// Package simdevice is a clock-driven implementation of audio.OutputDevice
// that never touches a real audio backend: Position advances from the
// wall-clock elapsed time since the last Play/Seek call, exactly as a real
// decoder would, without decoding anything. It is the default device wired
// by cmd/festivald until a native backend is added, and is also what the
// engine's own tests run against.
package simdevice

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Device is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	loaded    string
	playing   bool
	startedAt time.Time
	base      time.Duration
	volume    uint8
}

// New returns a Device with nothing loaded.
func New() *Device {
	return &Device{volume: 100}
}

func (d *Device) Load(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if path == "" {
		return errors.New("simdevice: empty path")
	}
	d.loaded = path
	d.base = 0
	d.playing = false
	return nil
}

func (d *Device) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded == "" {
		return errors.New("simdevice: no track loaded")
	}
	if !d.playing {
		d.startedAt = time.Now()
		d.playing = true
	}
	return nil
}

func (d *Device) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing {
		d.base += time.Since(d.startedAt)
		d.playing = false
	}
	return nil
}

func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = ""
	d.base = 0
	d.playing = false
	return nil
}

func (d *Device) Seek(pos time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	d.base = pos
	d.startedAt = time.Now()
	return nil
}

func (d *Device) Position() (time.Duration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.playing {
		return d.base, nil
	}
	return d.base + time.Since(d.startedAt), nil
}

func (d *Device) SetVolume(v uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = v
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = ""
	d.playing = false
	return nil
}

// Volume reports the last volume applied, for tests.
func (d *Device) Volume() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}
