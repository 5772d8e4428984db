package playlist

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/festivald/festivald/internal/collection"
)

func sampleCollection() *collection.Collection {
	c := collection.Empty()
	c.Artists = []collection.Artist{{Name: "Daft Punk", NameLower: "daft punk"}}
	c.Albums = []collection.Album{{Title: "Discovery", TitleLower: "discovery", Artist: 0}}
	c.Songs = []collection.Song{
		{Title: "One More Time", TitleLower: "one more time", Album: 0, Path: "/music/omt.flac"},
		{Title: "Aerodynamic", TitleLower: "aerodynamic", Album: 0, Path: "/music/aero.flac"},
	}
	return c
}

func TestAppendAndRemoveAt(t *testing.T) {
	l := NewLibrary()
	l.Append("faves", NewEntry(0, "Daft Punk", "Discovery", "One More Time"))
	l.Append("faves", NewEntry(1, "Daft Punk", "Discovery", "Aerodynamic"))

	if len(l.Playlists["faves"].Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(l.Playlists["faves"].Entries))
	}
	l.RemoveAt("faves", 0)
	entries := l.Playlists["faves"].Entries
	if len(entries) != 1 || entries[0].Title != "Aerodynamic" {
		t.Fatalf("expected only Aerodynamic left, got %+v", entries)
	}
}

func TestRenameMovesPlaylist(t *testing.T) {
	l := NewLibrary()
	l.Create("old")
	if !l.Rename("old", "new") {
		t.Fatal("expected rename to succeed")
	}
	if _, ok := l.Playlists["old"]; ok {
		t.Fatal("expected old name gone")
	}
	if _, ok := l.Playlists["new"]; !ok {
		t.Fatal("expected new name present")
	}
}

func TestRenameFailsIfTargetTaken(t *testing.T) {
	l := NewLibrary()
	l.Create("a")
	l.Create("b")
	if l.Rename("a", "b") {
		t.Fatal("expected rename to fail when target name is taken")
	}
}

func TestResolveMarksMissingSongInvalid(t *testing.T) {
	l := NewLibrary()
	l.Append("faves",
		NewEntry(0, "Daft Punk", "Discovery", "One More Time"),
		NewEntry(99, "Nobody", "Nothing", "Ghost Track"),
	)
	Resolve(l, sampleCollection())

	entries := l.Playlists["faves"].Entries
	if entries[0].Invalid {
		t.Fatal("expected first entry to resolve")
	}
	if entries[0].Key != 0 {
		t.Fatalf("expected key 0, got %d", entries[0].Key)
	}
	if !entries[1].Invalid {
		t.Fatal("expected second entry to be marked invalid")
	}
}

func TestExportM3USkipsInvalidEntries(t *testing.T) {
	l := NewLibrary()
	l.Append("faves",
		NewEntry(0, "Daft Punk", "Discovery", "One More Time"),
		NewEntry(99, "Nobody", "Nothing", "Ghost Track"),
	)
	c := sampleCollection()
	Resolve(l, c)

	var buf bytes.Buffer
	if err := ExportM3U(l, "faves", c, &buf); err != nil {
		t.Fatalf("ExportM3U: %v", err)
	}
	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("omt.flac")) {
		t.Fatalf("expected resolved track path in output, got %q", out)
	}
	if bytes.Contains(buf.Bytes(), []byte("Ghost Track")) {
		t.Fatalf("expected invalid entry skipped, got %q", out)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l := NewLibrary()
	l.Append("faves", NewEntry(0, "Daft Punk", "Discovery", "One More Time"))
	path := filepath.Join(t.TempDir(), "playlists.json")

	if err := Save(path, l); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Playlists["faves"].Entries) != 1 {
		t.Fatalf("expected 1 entry after round trip, got %d", len(got.Playlists["faves"].Entries))
	}
}

func TestLoadMissingFileReturnsEmptyLibrary(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(l.Playlists) != 0 {
		t.Fatalf("expected empty library, got %+v", l.Playlists)
	}
}
