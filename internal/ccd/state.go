package ccd

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/festivald/festivald/internal/collection"
)

// buildState holds the three output arenas and the working map the Parse
// phase's worker pool shares, protected by a single coarse mutex:
// extraction happens with no lock held, only the append-and-link step
// below is serialized.
type buildState struct {
	mu sync.Mutex

	artists []collection.Artist
	albums  []collection.Album
	songs   []collection.Song

	// artistIdx maps a lowercased artist name to its key; albumIdx maps a
	// lowercased artist name to a lowercased-album-name -> key map.
	artistIdx map[string]collection.ArtistKey
	albumIdx  map[string]map[string]collection.AlbumKey
}

func newBuildState() *buildState {
	return &buildState{
		artistIdx: make(map[string]collection.ArtistKey),
		albumIdx:  make(map[string]map[string]collection.AlbumKey),
	}
}

// add applies one file's extracted record to the shared arenas under lock,
// implementing the three cases from the worker protocol.
func (s *buildState) add(rec *fileRecord) {
	artistLower := strings.ToLower(rec.artist)
	albumLower := strings.ToLower(rec.album)

	s.mu.Lock()
	defer s.mu.Unlock()

	artistKey, artistKnown := s.artistIdx[artistLower]

	if artistKnown {
		albums := s.albumIdx[artistLower]
		if albumKey, albumKnown := albums[albumLower]; albumKnown {
			// Case a: artist and album both known, append song.
			songKey := collection.SongKey(len(s.songs))
			s.songs = append(s.songs, newSong(rec, albumKey))
			s.albums[albumKey].Songs = append(s.albums[albumKey].Songs, songKey)
			s.mergeIntoAlbum(albumKey, rec)
			s.artists[artistKey].Songs = append(s.artists[artistKey].Songs, songKey)
			return
		}

		// Case b: artist known, album new.
		albumKey := collection.AlbumKey(len(s.albums))
		songKey := collection.SongKey(len(s.songs))
		s.albums = append(s.albums, newAlbum(rec, artistKey))
		s.songs = append(s.songs, newSong(rec, albumKey))
		s.albums[albumKey].Songs = append(s.albums[albumKey].Songs, songKey)
		albums[albumLower] = albumKey
		s.artists[artistKey].Albums = append(s.artists[artistKey].Albums, albumKey)
		s.artists[artistKey].Songs = append(s.artists[artistKey].Songs, songKey)
		return
	}

	// Case c: artist new.
	artistKey = collection.ArtistKey(len(s.artists))
	albumKey := collection.AlbumKey(len(s.albums))
	songKey := collection.SongKey(len(s.songs))

	s.artists = append(s.artists, collection.Artist{
		Name:      rec.artist,
		NameLower: artistLower,
		Albums:    []collection.AlbumKey{albumKey},
		Songs:     []collection.SongKey{songKey},
	})
	s.albums = append(s.albums, newAlbum(rec, artistKey))
	s.songs = append(s.songs, newSong(rec, albumKey))
	s.albums[albumKey].Songs = append(s.albums[albumKey].Songs, songKey)

	s.artistIdx[artistLower] = artistKey
	s.albumIdx[artistLower] = map[string]collection.AlbumKey{albumLower: albumKey}
}

// mergeIntoAlbum folds a second-or-later song's album-level fields
// (release, genre, art, directory) into an already-created album on a
// first-value-wins basis, tolerating files within one album directory
// that disagree on these optional fields.
func (s *buildState) mergeIntoAlbum(albumKey collection.AlbumKey, rec *fileRecord) {
	a := &s.albums[albumKey]
	if a.Release == nil {
		if t, ok := releaseToTime(rec.release); ok {
			a.Release = &t
		}
	}
	if a.Genre == "" {
		a.Genre = rec.genre
	}
	if a.Art.Kind() == collection.ArtUnknown && len(rec.art) > 0 {
		a.Art = collection.NewRawArt(rec.art)
	}
}

func newAlbum(rec *fileRecord, artistKey collection.ArtistKey) collection.Album {
	a := collection.Album{
		Title:      rec.album,
		TitleLower: strings.ToLower(rec.album),
		Artist:     artistKey,
		Genre:      rec.genre,
		Dir:        filepath.Dir(rec.path),
	}
	if t, ok := releaseToTime(rec.release); ok {
		a.Release = &t
	}
	if len(rec.art) > 0 {
		a.Art = collection.NewRawArt(rec.art)
	}
	return a
}

func newSong(rec *fileRecord, albumKey collection.AlbumKey) collection.Song {
	return collection.Song{
		Title:      rec.title,
		TitleLower: strings.ToLower(rec.title),
		Album:      albumKey,
		Runtime:    time.Duration(rec.runtime * float64(time.Second)),
		SampleRate: rec.sampleRate,
		Track:      rec.track,
		Disc:       rec.disc,
		MimeType:   rec.mimeType,
		Ext:        rec.ext,
		Path:       rec.path,
	}
}

func releaseToTime(r *releaseDate) (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	month := r.month
	if month == 0 {
		month = 1
	}
	day := r.day
	if day == 0 {
		day = 1
	}
	return time.Date(r.year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

