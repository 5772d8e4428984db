package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/festivald/festivald/internal/audio"
)

func TestLoadSettingsMissingFileReturnsDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Volume != 100 || s.Repeat != audio.RepeatOff {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	want := DefaultSettings()
	want.Volume = 42
	want.Repeat = audio.RepeatQueue

	if err := SaveSettings(path, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got.Volume != 42 || got.Repeat != audio.RepeatQueue {
		t.Fatalf("expected round trip to preserve values, got %+v", got)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	s := DefaultSettings()
	s.LogLevel = "VERY_LOUD"
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidateRejectsOutOfRangeVolume(t *testing.T) {
	s := DefaultSettings()
	s.Volume = 255
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for out-of-range volume")
	}
}

func TestMigrateLegacyV0Settings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	legacy := `{"vol": 80, "repeat_mode": "queue", "prev_threshold_ms": 2500, "no_watch": true, "log_level": "WARN"}`
	if err := os.WriteFile(path, []byte(legacy), 0o640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got.Volume != 80 {
		t.Fatalf("expected volume 80, got %d", got.Volume)
	}
	if got.Repeat != audio.RepeatQueue {
		t.Fatalf("expected RepeatQueue, got %v", got.Repeat)
	}
	if got.PreviousThreshold != 2500*time.Millisecond {
		t.Fatalf("expected 2500ms, got %v", got.PreviousThreshold)
	}
	if !got.DisableWatch {
		t.Fatal("expected DisableWatch true")
	}
	if got.SchemaVersion != CurrentSettingsSchema {
		t.Fatalf("expected upgraded schema version, got %d", got.SchemaVersion)
	}
}

func TestDefaultPathsLayout(t *testing.T) {
	p := PathsFromRoot("/tmp/festivald-test")
	if p.CollectionPath() != "/tmp/festivald-test/state/collection.bin" {
		t.Fatalf("unexpected collection path: %s", p.CollectionPath())
	}
	if p.SignalDir != "/tmp/festivald-test/signal" {
		t.Fatalf("unexpected signal dir: %s", p.SignalDir)
	}
}
