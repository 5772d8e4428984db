// Package search implements the in-memory fuzzy keyword index built over
// a Collection: given a query string it scores every artist/album/song
// name by string similarity and returns matches in decreasing order.
package search

import (
	"sort"

	"github.com/festivald/festivald/internal/collection"
)

// Keychain is the result of a query: matching keys of each kind, ordered
// by decreasing similarity score.
type Keychain struct {
	Artists []collection.ArtistKey
	Albums  []collection.AlbumKey
	Songs   []collection.SongKey
}

// Answer selects which of the four query shapes a caller wants.
type Answer int

const (
	// All returns every key with a nonzero score, sorted.
	All Answer = iota
	// Sim70 returns only entries scoring at least 70%.
	Sim70
	// Top25 returns up to 25 entries per kind.
	Top25
	// Top1 returns the single best entry per kind.
	Top1
)

type scored[K any] struct {
	key   K
	score float64
}

// Index is rebuilt from scratch after every Collection rebuild; there is
// no incremental update.
type Index struct {
	artistNames []string // indexed by ArtistKey
	albumTitles []string // indexed by AlbumKey
	songTitles  []string // indexed by SongKey
}

// Build constructs an Index from c's current arenas. It is the CCD
// Search phase's entry point (see internal/ccd.Options.BuildSearch).
func Build(c *collection.Collection) *Index {
	idx := &Index{
		artistNames: make([]string, len(c.Artists)),
		albumTitles: make([]string, len(c.Albums)),
		songTitles:  make([]string, len(c.Songs)),
	}
	for i, a := range c.Artists {
		idx.artistNames[i] = a.NameLower
	}
	for i, a := range c.Albums {
		idx.albumTitles[i] = a.TitleLower
	}
	for i, s := range c.Songs {
		idx.songTitles[i] = s.TitleLower
	}
	return idx
}

// Query scores every name against q and returns the Keychain shaped by
// answer.
func (idx *Index) Query(q string, answer Answer) Keychain {
	artists := scoreAll[collection.ArtistKey](idx.artistNames, q)
	albums := scoreAll[collection.AlbumKey](idx.albumTitles, q)
	songs := scoreAll[collection.SongKey](idx.songTitles, q)

	switch answer {
	case Sim70:
		artists = filterMin(artists, 70)
		albums = filterMin(albums, 70)
		songs = filterMin(songs, 70)
	case Top25:
		artists = limitTo(artists, 25)
		albums = limitTo(albums, 25)
		songs = limitTo(songs, 25)
	case Top1:
		artists = limitTo(artists, 1)
		albums = limitTo(albums, 1)
		songs = limitTo(songs, 1)
	case All:
		artists = filterMin(artists, 0.0000001)
		albums = filterMin(albums, 0.0000001)
		songs = filterMin(songs, 0.0000001)
	}

	return Keychain{
		Artists: keysOf(artists),
		Albums:  keysOf(albums),
		Songs:   keysOf(songs),
	}
}

func scoreAll[K ~int](names []string, q string) []scored[K] {
	out := make([]scored[K], 0, len(names))
	for i, name := range names {
		s := similarity(name, q)
		out = append(out, scored[K]{key: K(i), score: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].key < out[j].key
	})
	return out
}

func filterMin[K ~int](in []scored[K], min float64) []scored[K] {
	out := in[:0:0]
	for _, s := range in {
		if s.score >= min {
			out = append(out, s)
		}
	}
	return out
}

func limitTo[K ~int](in []scored[K], n int) []scored[K] {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func keysOf[K ~int](in []scored[K]) []K {
	out := make([]K, len(in))
	for i, s := range in {
		out[i] = s.key
	}
	return out
}
