package audio

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/festivald/festivald/internal/audio/simdevice"
	"github.com/festivald/festivald/internal/collection"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func threeSongCollection() *collection.Collection {
	c := collection.Empty()
	c.Artists = []collection.Artist{{Name: "A", NameLower: "a", Songs: []collection.SongKey{0, 1, 2}}}
	c.Albums = []collection.Album{{Title: "X", TitleLower: "x", Artist: 0, Songs: []collection.SongKey{0, 1, 2}}}
	c.Songs = []collection.Song{
		{Title: "S1", TitleLower: "s1", Album: 0, Runtime: 10 * time.Second, Path: "/music/s1.flac"},
		{Title: "S2", TitleLower: "s2", Album: 0, Runtime: 10 * time.Second, Path: "/music/s2.flac"},
		{Title: "S3", TitleLower: "s3", Album: 0, Runtime: 10 * time.Second, Path: "/music/s3.flac"},
	}
	return c
}

func newTestEngine(t *testing.T) (*Engine, func()) {
	t.Helper()
	e := New(testLog(), Options{
		Device:     simdevice.New(),
		Collection: threeSongCollection(),
	})
	return e, func() { _ = e.Close() }
}

func TestAddQueueSongThenPlayLoadsDevice(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()

	e.AddQueueSong(0, false, false, true)
	snap := e.Snapshot()
	if snap.Index != 0 || !snap.Playing {
		t.Fatalf("expected index 0 playing, got %+v", snap)
	}
}

func TestNextRepeatOffStopsAtQueueEnd(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()

	e.AddQueueSong(0, false, false, true)
	e.AddQueueSong(1, false, false, false)
	e.SetRepeat(RepeatOff)

	e.Next()
	if snap := e.Snapshot(); snap.Index != 1 {
		t.Fatalf("expected index 1, got %d", snap.Index)
	}
	e.Next()
	snap := e.Snapshot()
	if snap.Index != -1 || snap.Playing {
		t.Fatalf("expected queue to end, got %+v", snap)
	}
}

func TestNextRepeatQueueWrapsToStart(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()

	e.AddQueueSong(0, false, false, true)
	e.AddQueueSong(1, false, false, false)
	e.SetRepeat(RepeatQueue)

	e.Next()
	e.Next()
	snap := e.Snapshot()
	if snap.Index != 0 || !snap.Playing {
		t.Fatalf("expected wrap to index 0 still playing, got %+v", snap)
	}
}

func TestNextRepeatQueuePauseWrapsButPauses(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()

	e.AddQueueSong(0, false, false, true)
	e.SetRepeat(RepeatQueuePause)

	e.Next()
	snap := e.Snapshot()
	if snap.Index != 0 || snap.Playing {
		t.Fatalf("expected wrap to index 0 paused, got %+v", snap)
	}
}

func TestPreviousRestartsWhenPastThreshold(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()
	e.previousThreshold = 3 * time.Second

	e.AddQueueSong(0, false, false, false)
	e.AddQueueSong(1, false, false, false)
	e.mu.Lock()
	e.st.Index = 1
	e.st.Playing = true
	e.st.Position = 5 * time.Second
	e.mu.Unlock()

	e.Previous()
	snap := e.Snapshot()
	if snap.Index != 1 {
		t.Fatalf("expected to stay on index 1 (restart), got index %d", snap.Index)
	}
	if snap.Position != 0 {
		t.Fatalf("expected position reset to 0, got %v", snap.Position)
	}
}

func TestPreviousMovesBackBeforeThreshold(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()
	e.previousThreshold = 3 * time.Second

	e.AddQueueSong(0, false, false, false)
	e.AddQueueSong(1, false, false, false)
	e.mu.Lock()
	e.st.Index = 1
	e.st.Playing = true
	e.st.Position = 1 * time.Second
	e.mu.Unlock()

	e.Previous()
	snap := e.Snapshot()
	if snap.Index != 0 {
		t.Fatalf("expected to move to index 0, got %d", snap.Index)
	}
}

func TestPreviousAtIndexZeroRestartsRegardless(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()

	e.AddQueueSong(0, false, false, true)
	e.mu.Lock()
	e.st.Position = 1 * time.Second
	e.mu.Unlock()

	e.Previous()
	snap := e.Snapshot()
	if snap.Index != 0 {
		t.Fatalf("expected to remain at index 0, got %d", snap.Index)
	}
}

func TestSetQueueIndexOutOfRangeEndsQueue(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()
	e.AddQueueSong(0, false, false, true)

	e.SetQueueIndex(99)
	snap := e.Snapshot()
	if snap.Index != -1 || snap.Playing {
		t.Fatalf("expected ended queue, got %+v", snap)
	}
}

func TestRemoveQueueRangeStraddlingCursorStops(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()
	e.AddQueueSong(0, false, false, true)
	e.AddQueueSong(1, false, false, false)
	e.AddQueueSong(2, false, false, false)

	e.RemoveQueueRange(0, 2)
	snap := e.Snapshot()
	if snap.Index != -1 || len(snap.Queue) != 1 {
		t.Fatalf("expected cursor invalidated and one entry left, got %+v", snap)
	}
}

func TestVolumeStaysInRangeUnderConcurrentWrites(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i <= 100; i++ {
			e.SetVolume(uint8(i))
		}
		close(done)
	}()
	for i := 0; i <= 100; i++ {
		e.SetVolume(uint8(i))
	}
	<-done
	if v := e.Volume(); v > 100 {
		t.Fatalf("expected volume clamped to <=100, got %d", v)
	}
}

func TestSeekSaturatesToSongDuration(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()
	e.AddQueueSong(0, false, false, true)

	if err := e.Seek(SeekAbsolute, 999*time.Second); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	snap := e.Snapshot()
	if snap.Position != 10*time.Second {
		t.Fatalf("expected position saturated at song duration 10s, got %v", snap.Position)
	}
}

func TestSeekNegativeSaturatesToZero(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()
	e.AddQueueSong(0, false, false, true)

	if err := e.Seek(SeekBackward, 999*time.Second); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	snap := e.Snapshot()
	if snap.Position != 0 {
		t.Fatalf("expected position saturated at 0, got %v", snap.Position)
	}
}

func TestTransportEventTriggersImmediatePersist(t *testing.T) {
	persisted := make(chan AudioState, 8)
	e := New(testLog(), Options{
		Device:     simdevice.New(),
		Collection: threeSongCollection(),
		// Larger than the test's own deadline, so a persisted state
		// arriving here can only be explained by the transport-event
		// hook, not the ticker's throttled interval.
		PersistInterval: time.Hour,
		Persist: func(st AudioState) error {
			persisted <- st
			return nil
		},
	})
	defer e.Close()

	e.AddQueueSong(0, false, false, true)

	select {
	case st := <-persisted:
		if st.Index != 0 || !st.Playing {
			t.Fatalf("expected persisted state to reflect the queued song, got %+v", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a transport event to trigger an immediate persist")
	}
}

func TestRestoreAudioStateDropsUnresolvableKeys(t *testing.T) {
	e, stop := newTestEngine(t)
	defer stop()

	e.RestoreAudioState(AudioState{
		SchemaVersion: CurrentAudioStateSchema,
		Queue:         []collection.SongKey{0, 99, 1},
		Index:         2,
		Volume:        55,
		Repeat:        RepeatQueue,
		Playing:       true,
	})
	snap := e.Snapshot()
	if len(snap.Queue) != 2 {
		t.Fatalf("expected unresolvable key dropped, got queue %v", snap.Queue)
	}
	if snap.Index != 1 {
		t.Fatalf("expected restored index remapped to 1, got %d", snap.Index)
	}
	if snap.Volume != 55 {
		t.Fatalf("expected volume restored to 55, got %d", snap.Volume)
	}
}
