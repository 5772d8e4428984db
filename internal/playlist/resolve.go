package playlist

import "github.com/festivald/festivald/internal/collection"

// Resolve re-derives every entry's SongKey against a freshly built
// Collection, called by the Kernel after each rebuild since the old keys
// are meaningless against the new arenas. Entries that no longer match
// any song by (artist, album, title) are marked Invalid rather than
// dropped, so they reappear automatically if the matching song returns
// in a later rebuild.
func Resolve(l *Library, c *collection.Collection) {
	index := buildTripleIndex(c)
	for name, p := range l.Playlists {
		for i := range p.Entries {
			e := &p.Entries[i]
			key, ok := index[tripleKey(e.Artist, e.Album, e.Title)]
			if ok {
				e.Key = key
				e.Invalid = false
			} else {
				e.Key = collection.SongKey(collection.InvalidKey)
				e.Invalid = true
			}
		}
		l.Playlists[name] = p
	}
}

type triple struct {
	artist, album, title string
}

func tripleKey(artist, album, title string) triple {
	return triple{artist: artist, album: album, title: title}
}

func buildTripleIndex(c *collection.Collection) map[triple]collection.SongKey {
	index := make(map[triple]collection.SongKey, c.SongCount())
	for sk, song := range c.Songs {
		alb, ok := c.Album(song.Album)
		if !ok {
			continue
		}
		art, ok := c.Artist(alb.Artist)
		if !ok {
			continue
		}
		index[tripleKey(art.Name, alb.Title, song.Title)] = collection.SongKey(sk)
	}
	return index
}
