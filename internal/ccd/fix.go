package ccd

import (
	"sort"
	"time"

	"github.com/festivald/festivald/internal/collection"
)

// fix runs the Fix phase: a single-threaded pass over the arenas that
// computes per-album and per-artist aggregate fields and sorts
// album.Songs by (disc, track) and artist.Albums by release date.
func fix(state *buildState) {
	for ak := range state.albums {
		a := &state.albums[ak]

		sort.Slice(a.Songs, func(i, j int) bool {
			si := state.songs[a.Songs[i]]
			sj := state.songs[a.Songs[j]]
			return albumSongLess(si, sj)
		})

		var runtime int64
		discs := map[int]struct{}{}
		for _, sk := range a.Songs {
			s := state.songs[sk]
			runtime += int64(s.Runtime)
			d := 0
			if s.Disc != nil {
				d = *s.Disc
			}
			discs[d] = struct{}{}
		}
		a.Runtime = time.Duration(runtime)
		a.SongCount = len(a.Songs)
		a.Discs = len(discs)
	}

	for xk := range state.artists {
		x := &state.artists[xk]

		sort.Slice(x.Albums, func(i, j int) bool {
			ai := state.albums[x.Albums[i]]
			aj := state.albums[x.Albums[j]]
			return artistAlbumLess(ai, aj, x.Albums[i], x.Albums[j])
		})

		var runtime int64
		x.Songs = x.Songs[:0]
		for _, ak := range x.Albums {
			album := state.albums[ak]
			runtime += int64(album.Runtime)
			x.Songs = append(x.Songs, album.Songs...)
		}
		x.Runtime = time.Duration(runtime)
	}
}

func albumSongLess(a, b collection.Song) bool {
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
	if at != bt {
		return at < bt
	}
	return a.TitleLower < b.TitleLower
}

// artistAlbumLess orders albums by release date, unknown releases last,
// ties broken by key to keep ordering deterministic.
func artistAlbumLess(a, b collection.Album, ak, bk collection.AlbumKey) bool {
	switch {
	case a.Release == nil && b.Release == nil:
		return ak < bk
	case a.Release == nil:
		return false
	case b.Release == nil:
		return true
	case !a.Release.Equal(*b.Release):
		return a.Release.Before(*b.Release)
	default:
		return ak < bk
	}
}

