package collection

import (
	"fmt"
	"sort"
)

// Validate checks the cross-reference and ordering invariants every
// freshly built Collection must hold. It is called once at the end of a
// CCD rebuild (see internal/ccd); a debug build is expected to treat a
// non-nil result as a programmer bug (a fatal invariant), a release
// build logs it and discards the rebuild result.
func (c *Collection) Validate() error {
	for ak, a := range c.Albums {
		for _, sk := range a.Songs {
			s, ok := c.Song(sk)
			if !ok {
				return fmt.Errorf("album %d references out-of-bounds song %d", ak, sk)
			}
			if int(s.Album) != ak {
				return fmt.Errorf("song %d claims album %d, but album %d lists it", sk, s.Album, ak)
			}
		}
		if _, ok := c.Artist(a.Artist); !ok {
			return fmt.Errorf("album %d references out-of-bounds artist %d", ak, a.Artist)
		}
		if !sort.SliceIsSorted(a.Songs, func(i, j int) bool {
			si, _ := c.Song(a.Songs[i])
			sj, _ := c.Song(a.Songs[j])
			return discTrackLess(si, sj)
		}) {
			return fmt.Errorf("album %d songs are not sorted by (disc, track)", ak)
		}
		if got := distinctDiscs(c, a.Songs); got != a.Discs {
			return fmt.Errorf("album %d reports %d discs, counted %d", ak, a.Discs, got)
		}
	}

	for xk, x := range c.Artists {
		var sum int64
		for _, ak := range x.Albums {
			a, ok := c.Album(ak)
			if !ok {
				return fmt.Errorf("artist %d references out-of-bounds album %d", xk, ak)
			}
			sum += int64(a.Runtime)
		}
		if sum != int64(x.Runtime) {
			return fmt.Errorf("artist %d runtime %d does not equal sum of album runtimes %d", xk, x.Runtime, sum)
		}
	}

	if err := checkOrdering(len(c.Artists), toInts(c.Orderings.ArtistLexical)); err != nil {
		return fmt.Errorf("ArtistLexical: %w", err)
	}
	if err := checkOrdering(len(c.Artists), toInts(c.Orderings.ArtistAlbumCount)); err != nil {
		return fmt.Errorf("ArtistAlbumCount: %w", err)
	}
	if err := checkOrdering(len(c.Artists), toInts(c.Orderings.ArtistSongCount)); err != nil {
		return fmt.Errorf("ArtistSongCount: %w", err)
	}
	for name, ord := range map[string][]AlbumKey{
		"AlbumArtistLexRelease": c.Orderings.AlbumArtistLexRelease,
		"AlbumArtistLexTitle":   c.Orderings.AlbumArtistLexTitle,
		"AlbumLexical":          c.Orderings.AlbumLexical,
		"AlbumRelease":          c.Orderings.AlbumRelease,
		"AlbumRuntime":          c.Orderings.AlbumRuntime,
	} {
		if err := checkOrdering(len(c.Albums), toIntsAlbum(ord)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for name, ord := range map[string][]SongKey{
		"SongArtistAlbumReleaseTrack": c.Orderings.SongArtistAlbumReleaseTrack,
		"SongArtistAlbumLexTrack":     c.Orderings.SongArtistAlbumLexTrack,
		"SongLexical":                 c.Orderings.SongLexical,
		"SongRelease":                 c.Orderings.SongRelease,
		"SongRuntime":                 c.Orderings.SongRuntime,
	} {
		if err := checkOrdering(len(c.Songs), toIntsSong(ord)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

func discTrackLess(a, b Song) bool {
	ad, bd := 0, 0
	if a.Disc != nil {
		ad = *a.Disc
	}
	if b.Disc != nil {
		bd = *b.Disc
	}
	if ad != bd {
		return ad < bd
	}
	at, bt := 0, 0
	if a.Track != nil {
		at = *a.Track
	}
	if b.Track != nil {
		bt = *b.Track
	}
	return at < bt
}

func distinctDiscs(c *Collection, songs []SongKey) int {
	seen := map[int]struct{}{}
	for _, sk := range songs {
		s, _ := c.Song(sk)
		d := 0
		if s.Disc != nil {
			d = *s.Disc
		}
		seen[d] = struct{}{}
	}
	return len(seen)
}

// checkOrdering verifies that keys contains exactly {0, ..., n-1}, each once.
func checkOrdering(n int, keys []int) error {
	if len(keys) != n {
		return fmt.Errorf("expected %d keys, got %d", n, len(keys))
	}
	seen := make([]bool, n)
	for _, k := range keys {
		if k < 0 || k >= n {
			return fmt.Errorf("key %d out of range [0,%d)", k, n)
		}
		if seen[k] {
			return fmt.Errorf("key %d appears more than once", k)
		}
		seen[k] = true
	}
	return nil
}

func toInts(ks []ArtistKey) []int {
	out := make([]int, len(ks))
	for i, k := range ks {
		out[i] = int(k)
	}
	return out
}

func toIntsAlbum(ks []AlbumKey) []int {
	out := make([]int, len(ks))
	for i, k := range ks {
		out[i] = int(k)
	}
	return out
}

func toIntsSong(ks []SongKey) []int {
	out := make([]int, len(ks))
	for i, k := range ks {
		out[i] = int(k)
	}
	return out
}
