package audio

import (
	"time"

	"github.com/festivald/festivald/internal/collection"
)

// AudioState is the Audio Engine's persisted snapshot: everything needed
// to restore playback across a restart. It is written to
// state/audio_state.bin by the Kernel's persistence cadence and read back
// on boot via RestoreAudioState.
type AudioState struct {
	SchemaVersion int
	Queue         []collection.SongKey
	Index         int // -1 means no current song
	Position      time.Duration
	Volume        uint8
	Repeat        RepeatMode
	Playing       bool
}

// CurrentAudioStateSchema is bumped whenever AudioState's on-disk shape
// changes incompatibly.
const CurrentAudioStateSchema = 1

// emptyState is the boot default before any queue has ever been built.
func emptyState() AudioState {
	return AudioState{
		SchemaVersion: CurrentAudioStateSchema,
		Index:         -1,
		Volume:        100,
		Repeat:        RepeatOff,
	}
}

// SeekVariant selects how Seek interprets its argument.
type SeekVariant int

const (
	SeekAbsolute SeekVariant = iota
	SeekForward
	SeekBackward
)

// EventKind enumerates the asynchronous events the engine can raise while
// the decode loop runs, surfaced to the Kernel over Engine.Events().
type EventKind int

const (
	EventDeviceError EventKind = iota
	EventPlayError
	EventSeekError
	EventPathError
)

func (k EventKind) String() string {
	switch k {
	case EventDeviceError:
		return "device_error"
	case EventPlayError:
		return "play_error"
	case EventSeekError:
		return "seek_error"
	case EventPathError:
		return "path_error"
	default:
		return "unknown"
	}
}

// Event is a single asynchronous notification. Song names the queue entry
// for path and play errors and for a seek error raised while loading an
// entry; every other event leaves Song at its zero value, so it does not
// identify a song for those events.
type Event struct {
	Kind    EventKind
	Song    collection.SongKey
	Message string
}
