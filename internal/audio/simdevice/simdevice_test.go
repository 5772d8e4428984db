package simdevice

import (
	"testing"
	"time"
)

func TestPlayAdvancesPosition(t *testing.T) {
	d := New()
	if err := d.Load("/music/song.flac"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := d.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	pos, err := d.Position()
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if pos <= 0 {
		t.Fatalf("expected position to advance while playing, got %v", pos)
	}
}

func TestPauseFreezesPosition(t *testing.T) {
	d := New()
	_ = d.Load("/music/song.flac")
	_ = d.Play()
	time.Sleep(15 * time.Millisecond)
	_ = d.Pause()
	p1, _ := d.Position()
	time.Sleep(15 * time.Millisecond)
	p2, _ := d.Position()
	if p1 != p2 {
		t.Fatalf("expected position frozen across pause, got %v then %v", p1, p2)
	}
}

func TestSeekSetsPosition(t *testing.T) {
	d := New()
	_ = d.Load("/music/song.flac")
	if err := d.Seek(90 * time.Second); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	pos, _ := d.Position()
	if pos != 90*time.Second {
		t.Fatalf("expected 90s, got %v", pos)
	}
}

func TestSeekNegativeClampsToZero(t *testing.T) {
	d := New()
	_ = d.Load("/music/song.flac")
	_ = d.Seek(-5 * time.Second)
	pos, _ := d.Position()
	if pos != 0 {
		t.Fatalf("expected 0, got %v", pos)
	}
}

func TestPlayWithoutLoadErrors(t *testing.T) {
	d := New()
	if err := d.Play(); err == nil {
		t.Fatal("expected error playing with nothing loaded")
	}
}

func TestStopClearsLoadedTrack(t *testing.T) {
	d := New()
	_ = d.Load("/music/song.flac")
	_ = d.Play()
	_ = d.Stop()
	if err := d.Play(); err == nil {
		t.Fatal("expected error playing after Stop cleared the track")
	}
}

func TestSetVolumeIsObservable(t *testing.T) {
	d := New()
	if err := d.SetVolume(42); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if d.Volume() != 42 {
		t.Fatalf("expected 42, got %v", d.Volume())
	}
}
