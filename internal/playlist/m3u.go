package playlist

import (
	"io"

	"github.com/pkg/errors"
	"github.com/ushis/m3u"

	"github.com/festivald/festivald/internal/collection"
)

// ExportM3U writes name's resolved entries as an extended M3U playlist.
// Invalid entries (no longer resolving against c) are skipped rather
// than failing the whole export.
func ExportM3U(l *Library, name string, c *collection.Collection, w io.Writer) error {
	p, ok := l.Playlists[name]
	if !ok {
		return errors.Errorf("playlist: no playlist named %q", name)
	}

	tracks := make(m3u.Playlist, 0, len(p.Entries))
	for _, e := range p.Entries {
		if e.Invalid {
			continue
		}
		song, ok := c.Song(e.Key)
		if !ok {
			continue
		}
		alb, ok := c.Album(song.Album)
		if !ok {
			continue
		}
		art, ok := c.Artist(alb.Artist)
		if !ok {
			continue
		}
		tracks = append(tracks, m3u.Track{
			Path:   song.Path,
			Name:   art.Name + " - " + song.Title,
			Length: int(song.Runtime.Seconds()),
		})
	}

	if _, err := tracks.WriteTo(w); err != nil {
		return errors.Wrapf(err, "writing m3u for playlist %q", name)
	}
	return nil
}
