package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/festivald/festivald/internal/audio"
)

// CurrentSettingsSchema is bumped whenever Settings' on-disk JSON shape
// changes incompatibly. migrate.go upgrades older files to this shape.
const CurrentSettingsSchema = 1

// Settings is the small set of persisted, user-adjustable knobs: the
// rest of the runtime state (queue, position, ...) lives in
// AudioState instead.
type Settings struct {
	SchemaVersion        int               `json:"schema_version"`
	Volume               uint8             `json:"volume"`
	Repeat               audio.RepeatMode  `json:"repeat"`
	PreviousThreshold    time.Duration     `json:"previous_threshold"`
	DisableWatch         bool              `json:"disable_watch"`
	DisableMediaControls bool              `json:"disable_media_controls"`
	LogLevel             string            `json:"log_level"`
}

// DefaultSettings matches the Audio Engine's own defaults (emptyState in
// internal/audio), so a first run with no settings.json behaves the same
// as one that has just been migrated from nothing.
func DefaultSettings() Settings {
	return Settings{
		SchemaVersion:     CurrentSettingsSchema,
		Volume:            100,
		Repeat:            audio.RepeatOff,
		PreviousThreshold: audio.DefaultPreviousThreshold,
		LogLevel:          "INFO",
	}
}

// Validate rejects settings values the rest of the system can't act on.
func (s Settings) Validate() error {
	if s.Volume > 100 {
		return errors.Errorf("config: volume %d out of range [0,100]", s.Volume)
	}
	if s.Repeat < audio.RepeatOff || s.Repeat > audio.RepeatQueuePause {
		return errors.Errorf("config: repeat mode %d out of range", s.Repeat)
	}
	if s.PreviousThreshold < 0 {
		return errors.New("config: previous_threshold must not be negative")
	}
	switch s.LogLevel {
	case "OFF", "ERROR", "INFO", "WARN", "DEBUG", "TRACE":
	default:
		return errors.Errorf("config: unrecognized log level %q", s.LogLevel)
	}
	return nil
}

// LoadSettings reads path, migrating forward from any recognized older
// schema, and returns DefaultSettings if the file doesn't exist yet.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, errors.Wrapf(err, "reading settings file %s", path)
	}

	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Settings{}, errors.Wrapf(err, "parsing settings file %s", path)
	}

	s, err := migrateSettings(probe.SchemaVersion, data)
	if err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, errors.Wrapf(err, "settings file %s failed validation", path)
	}
	return s, nil
}

// SaveSettings writes s to path atomically.
func SaveSettings(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling settings")
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file in %s", dir)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "writing settings")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing settings temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "renaming settings file into %s", path)
	}
	return nil
}
