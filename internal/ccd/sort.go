package ccd

import (
	"sort"
	"time"

	"github.com/festivald/festivald/internal/collection"
)

// computeOrderings builds the thirteen precomputed key orderings described in
// the Sort phase. Every comparison that can tie falls back to
// comparing the raw key value, so ordering is fully deterministic.
func computeOrderings(c *collection.Collection) collection.Orderings {
	var o collection.Orderings

	o.ArtistLexical = sortedArtistKeys(c, func(a, b int) bool {
		if c.Artists[a].NameLower != c.Artists[b].NameLower {
			return c.Artists[a].NameLower < c.Artists[b].NameLower
		}
		return a < b
	})
	o.ArtistAlbumCount = sortedArtistKeys(c, func(a, b int) bool {
		if len(c.Artists[a].Albums) != len(c.Artists[b].Albums) {
			return len(c.Artists[a].Albums) > len(c.Artists[b].Albums)
		}
		return a < b
	})
	o.ArtistSongCount = sortedArtistKeys(c, func(a, b int) bool {
		if len(c.Artists[a].Songs) != len(c.Artists[b].Songs) {
			return len(c.Artists[a].Songs) > len(c.Artists[b].Songs)
		}
		return a < b
	})

	o.AlbumArtistLexRelease = sortedAlbumKeys(c, func(a, b int) bool {
		na, nb := c.Artists[c.Albums[a].Artist].NameLower, c.Artists[c.Albums[b].Artist].NameLower
		if na != nb {
			return na < nb
		}
		if less, eq := releaseLess(c.Albums[a].Release, c.Albums[b].Release); !eq {
			return less
		}
		return a < b
	})
	o.AlbumArtistLexTitle = sortedAlbumKeys(c, func(a, b int) bool {
		na, nb := c.Artists[c.Albums[a].Artist].NameLower, c.Artists[c.Albums[b].Artist].NameLower
		if na != nb {
			return na < nb
		}
		if c.Albums[a].TitleLower != c.Albums[b].TitleLower {
			return c.Albums[a].TitleLower < c.Albums[b].TitleLower
		}
		return a < b
	})
	o.AlbumLexical = sortedAlbumKeys(c, func(a, b int) bool {
		if c.Albums[a].TitleLower != c.Albums[b].TitleLower {
			return c.Albums[a].TitleLower < c.Albums[b].TitleLower
		}
		return a < b
	})
	o.AlbumRelease = sortedAlbumKeys(c, func(a, b int) bool {
		if less, eq := releaseLess(c.Albums[a].Release, c.Albums[b].Release); !eq {
			return less
		}
		return a < b
	})
	o.AlbumRuntime = sortedAlbumKeys(c, func(a, b int) bool {
		if c.Albums[a].Runtime != c.Albums[b].Runtime {
			return c.Albums[a].Runtime > c.Albums[b].Runtime
		}
		return a < b
	})

	o.SongArtistAlbumReleaseTrack = sortedSongKeys(c, func(a, b int) bool {
		aa, ab := c.Albums[c.Songs[a].Album], c.Albums[c.Songs[b].Album]
		na, nb := c.Artists[aa.Artist].NameLower, c.Artists[ab.Artist].NameLower
		if na != nb {
			return na < nb
		}
		if less, eq := releaseLess(aa.Release, ab.Release); !eq {
			return less
		}
		if t, eq := trackLess(c.Songs[a].Track, c.Songs[b].Track); !eq {
			return t
		}
		return a < b
	})
	o.SongArtistAlbumLexTrack = sortedSongKeys(c, func(a, b int) bool {
		aa, ab := c.Albums[c.Songs[a].Album], c.Albums[c.Songs[b].Album]
		na, nb := c.Artists[aa.Artist].NameLower, c.Artists[ab.Artist].NameLower
		if na != nb {
			return na < nb
		}
		if aa.TitleLower != ab.TitleLower {
			return aa.TitleLower < ab.TitleLower
		}
		if t, eq := trackLess(c.Songs[a].Track, c.Songs[b].Track); !eq {
			return t
		}
		return a < b
	})
	o.SongLexical = sortedSongKeys(c, func(a, b int) bool {
		if c.Songs[a].TitleLower != c.Songs[b].TitleLower {
			return c.Songs[a].TitleLower < c.Songs[b].TitleLower
		}
		return a < b
	})
	o.SongRelease = sortedSongKeys(c, func(a, b int) bool {
		aa, ab := c.Albums[c.Songs[a].Album], c.Albums[c.Songs[b].Album]
		if less, eq := releaseLess(aa.Release, ab.Release); !eq {
			return less
		}
		return a < b
	})
	o.SongRuntime = sortedSongKeys(c, func(a, b int) bool {
		if c.Songs[a].Runtime != c.Songs[b].Runtime {
			return c.Songs[a].Runtime > c.Songs[b].Runtime
		}
		return a < b
	})

	return o
}

func sortedArtistKeys(c *collection.Collection, less func(a, b int) bool) []collection.ArtistKey {
	idx := make([]int, len(c.Artists))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return less(idx[i], idx[j]) })
	out := make([]collection.ArtistKey, len(idx))
	for i, v := range idx {
		out[i] = collection.ArtistKey(v)
	}
	return out
}

func sortedAlbumKeys(c *collection.Collection, less func(a, b int) bool) []collection.AlbumKey {
	idx := make([]int, len(c.Albums))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return less(idx[i], idx[j]) })
	out := make([]collection.AlbumKey, len(idx))
	for i, v := range idx {
		out[i] = collection.AlbumKey(v)
	}
	return out
}

func sortedSongKeys(c *collection.Collection, less func(a, b int) bool) []collection.SongKey {
	idx := make([]int, len(c.Songs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return less(idx[i], idx[j]) })
	out := make([]collection.SongKey, len(idx))
	for i, v := range idx {
		out[i] = collection.SongKey(v)
	}
	return out
}

// releaseLess orders by release date, unknown releases last. The second
// return value reports whether a and b compare equal at this level (in
// which case the caller should move to its next tie-break).
func releaseLess(a, b *time.Time) (less bool, equal bool) {
	switch {
	case a == nil && b == nil:
		return false, true
	case a == nil:
		return false, false // a (unknown) sorts after b
	case b == nil:
		return true, false
	case a.Equal(*b):
		return false, true
	default:
		return a.Before(*b), false
	}
}

func trackLess(a, b *int) (less bool, equal bool) {
	av, bv := 0, 0
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	if av == bv {
		return false, true
	}
	return av < bv, false
}
