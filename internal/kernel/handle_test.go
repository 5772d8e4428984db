package kernel

import (
	"testing"

	"github.com/festivald/festivald/internal/collection"
	"github.com/festivald/festivald/internal/watch"
)

func twoSongCollection() *collection.Collection {
	c := collection.Empty()
	c.Artists = []collection.Artist{{Name: "A", NameLower: "a", Songs: []collection.SongKey{0, 1}}}
	c.Albums = []collection.Album{{Title: "X", TitleLower: "x", Artist: 0, Songs: []collection.SongKey{0, 1}}}
	c.Songs = []collection.Song{
		{Title: "S1", TitleLower: "s1", Album: 0, Path: "/music/s1.flac"},
		{Title: "S2", TitleLower: "s2", Album: 0, Path: "/music/s2.flac"},
	}
	return c
}

func TestHandleSignalIndexIsOneBasedExternally(t *testing.T) {
	k := newTestKernel(t)
	k.engine.SetCollection(twoSongCollection())
	k.engine.AddQueueSong(0, false, false, false)
	k.engine.AddQueueSong(1, false, false, false)

	k.handleSignal(watch.Signal{Kind: watch.Index, Payload: 1})
	if got := k.engine.Snapshot().Index; got != 0 {
		t.Fatalf("expected payload 1 (first queue slot) to land on index 0, got %d", got)
	}

	k.handleSignal(watch.Signal{Kind: watch.Index, Payload: 2})
	if got := k.engine.Snapshot().Index; got != 1 {
		t.Fatalf("expected payload 2 to land on index 1, got %d", got)
	}
}

func TestHandleSignalIndexZeroSaturatesRatherThanWraps(t *testing.T) {
	k := newTestKernel(t)
	k.engine.SetCollection(twoSongCollection())
	k.engine.AddQueueSong(0, false, false, false)
	k.engine.AddQueueSong(1, false, false, false)

	k.handleSignal(watch.Signal{Kind: watch.Index, Payload: 0})
	if got := k.engine.Snapshot().Index; got != 0 {
		t.Fatalf("expected payload 0 to saturate to index 0, got %d", got)
	}
}
