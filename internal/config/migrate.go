package config

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/festivald/festivald/internal/audio"
)

// legacySettingsV0 is the flat shape settings.json had before
// schema_version existed: different field names, repeat as a string, and
// threshold in milliseconds instead of a time.Duration.
type legacySettingsV0 struct {
	Vol             uint8  `json:"vol"`
	RepeatMode      string `json:"repeat_mode"`
	PrevThresholdMs int64  `json:"prev_threshold_ms"`
	NoWatch         bool   `json:"no_watch"`
	NoMediaControls bool   `json:"no_media_controls"`
	LogLevel        string `json:"log_level"`
}

// migrateSettings upgrades data, whose declared schema is version, to the
// current Settings shape. Unlike internal/persist's exact
// version-to-decoder registry, this is a single-hop chain because
// Settings has only ever had one predecessor shape; a system with more
// history would register one decoder per historical version the same
// way internal/persist does.
func migrateSettings(version int, data []byte) (Settings, error) {
	switch version {
	case CurrentSettingsSchema:
		var s Settings
		if err := json.Unmarshal(data, &s); err != nil {
			return Settings{}, errors.Wrap(err, "parsing current-schema settings")
		}
		return s, nil
	case 0:
		var legacy legacySettingsV0
		if err := json.Unmarshal(data, &legacy); err != nil {
			return Settings{}, errors.Wrap(err, "parsing legacy settings")
		}
		return Settings{
			SchemaVersion:        CurrentSettingsSchema,
			Volume:               legacy.Vol,
			Repeat:               repeatFromLegacyString(legacy.RepeatMode),
			PreviousThreshold:    time.Duration(legacy.PrevThresholdMs) * time.Millisecond,
			DisableWatch:         legacy.NoWatch,
			DisableMediaControls: legacy.NoMediaControls,
			LogLevel:             legacy.LogLevel,
		}, nil
	default:
		return Settings{}, errors.Errorf("config: unsupported settings schema version %d", version)
	}
}

func repeatFromLegacyString(s string) audio.RepeatMode {
	switch s {
	case "song":
		return audio.RepeatSong
	case "queue":
		return audio.RepeatQueue
	case "queue-pause":
		return audio.RepeatQueuePause
	default:
		return audio.RepeatOff
	}
}
