package collection

import (
	"path/filepath"
	"testing"

	"github.com/festivald/festivald/internal/persist"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	c := buildValid()
	path := filepath.Join(t.TempDir(), "collection.bin")

	var flag persist.SavingFlag
	if err := Save(path, c, &flag); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if flag.Saving() {
		t.Fatal("expected flag clear after Save returns")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("loaded collection invalid: %v", err)
	}
	if got.ArtistCount() != c.ArtistCount() || got.AlbumCount() != c.AlbumCount() || got.SongCount() != c.SongCount() {
		t.Fatalf("arena sizes changed across round trip")
	}
	if got.Artists[0].Name != c.Artists[0].Name {
		t.Fatalf("artist name changed across round trip: got %q", got.Artists[0].Name)
	}
}

func TestSaveLoadPreservesArt(t *testing.T) {
	c := buildValid()
	c.Albums[0].Art = NewRawArt([]byte{0xff, 0xd8, 0xff, 0x00})
	path := filepath.Join(t.TempDir(), "collection.bin")

	var flag persist.SavingFlag
	if err := Save(path, c, &flag); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Albums[0].Art.Kind() != ArtRaw {
		t.Fatalf("expected art kind ArtRaw, got %v", got.Albums[0].Art.Kind())
	}
	if string(got.Albums[0].Art.Raw()) != string([]byte{0xff, 0xd8, 0xff, 0x00}) {
		t.Fatal("art bytes changed across round trip")
	}
}

func TestSaveRejectsDecodedArt(t *testing.T) {
	c := buildValid()
	c.Albums[0].Art = Art{kind: ArtDecoded}
	path := filepath.Join(t.TempDir(), "collection.bin")

	var flag persist.SavingFlag
	err := Save(path, c, &flag)
	if err == nil {
		t.Fatal("expected error saving a collection with Decoded art")
	}
}
