package audio

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/festivald/festivald/internal/collection"
	"github.com/festivald/festivald/internal/persist"
)

// CurrentDiskVersion is AudioState's on-disk framing version, independent
// of CurrentAudioStateSchema (which versions the in-memory struct; this
// versions the gob wire body written under persist.Magic).
const CurrentDiskVersion byte = 1

// diskState is the gob-visible wire shape, kept separate from AudioState
// itself so a future on-disk shape change doesn't have to touch the
// in-memory type.
type diskState struct {
	SchemaVersion int
	Queue         []int
	Index         int
	PositionNanos int64
	Volume        uint8
	Repeat        int
	Playing       bool
}

func toDisk(s AudioState) diskState {
	queue := make([]int, len(s.Queue))
	for i, k := range s.Queue {
		queue[i] = int(k)
	}
	return diskState{
		SchemaVersion: s.SchemaVersion,
		Queue:         queue,
		Index:         s.Index,
		PositionNanos: int64(s.Position),
		Volume:        s.Volume,
		Repeat:        int(s.Repeat),
		Playing:       s.Playing,
	}
}

func fromDisk(d diskState) AudioState {
	queue := make([]collection.SongKey, len(d.Queue))
	for i, k := range d.Queue {
		queue[i] = collection.SongKey(k)
	}
	return AudioState{
		SchemaVersion: d.SchemaVersion,
		Queue:         queue,
		Index:         d.Index,
		Position:      time.Duration(d.PositionNanos),
		Volume:        d.Volume,
		Repeat:        RepeatMode(d.Repeat),
		Playing:       d.Playing,
	}
}

// SaveState writes s to path via the shared binary framing used for
// Collection (see internal/collection/store.go), keeping the two kinds
// of persisted state in the same on-disk format instead of inventing a
// second one.
func SaveState(path string, s AudioState, flag *persist.SavingFlag) error {
	d := toDisk(s)
	return persist.WriteFramedTracked(path, CurrentDiskVersion, func(w *bufio.Writer) error {
		return gob.NewEncoder(w).Encode(d)
	}, flag)
}

// LoadState reads a previously saved AudioState. A missing file is not
// an error: it returns emptyState(), matching first-run behavior.
func LoadState(path string) (AudioState, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return emptyState(), nil
	}

	version, body, err := persist.ReadFramed(path)
	if err != nil {
		return AudioState{}, err
	}
	decoded, err := persist.DecodeVersioned(version, body, map[byte]persist.Decoder{
		CurrentDiskVersion: decodeStateV1,
	})
	if err != nil {
		return AudioState{}, err
	}
	return decoded.(AudioState), nil
}

func decodeStateV1(body []byte) (interface{}, error) {
	var d diskState
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&d); err != nil {
		return nil, errors.Wrap(err, "decoding audio state body")
	}
	return fromDisk(d), nil
}
