package collection

import "time"

// Artist is created by the Collection Builder during ingest, immutable
// thereafter, and destroyed atomically when the Collection is replaced.
type Artist struct {
	Name      string
	NameLower string
	Runtime   time.Duration // sum of owned songs' runtime

	// Albums is in release order (unknowns last, tie-broken by key).
	Albums []AlbumKey
	// Songs is flat, in album order then track order.
	Songs []SongKey
}

// Album is created by the Collection Builder during ingest, immutable
// thereafter, and destroyed atomically when the Collection is replaced.
type Album struct {
	Title      string
	TitleLower string
	Artist     ArtistKey
	Release    *time.Time // nil if unknown
	Runtime    time.Duration
	SongCount  int
	Discs      int // number of distinct disc values encountered
	Songs      []SongKey
	Dir        string // parent directory path
	Genre      string // empty if unknown
	Art        Art
}

// Song is created by the Collection Builder during ingest, immutable
// thereafter, and destroyed atomically when the Collection is replaced.
type Song struct {
	Title      string
	TitleLower string
	Album      AlbumKey
	Runtime    time.Duration
	SampleRate int
	Track      *int // nil if unknown
	Disc       *int // nil if unknown
	MimeType   string
	Ext        string
	Path       string
}

// Orderings holds the thirteen precomputed key orderings computed by the CCD
// Sort phase. Each slice contains exactly the keys of the corresponding
// arena, each exactly once, in the stated order.
type Orderings struct {
	ArtistLexical    []ArtistKey // by NameLower
	ArtistAlbumCount []ArtistKey
	ArtistSongCount  []ArtistKey

	AlbumArtistLexRelease []AlbumKey // (artist NameLower, release)
	AlbumArtistLexTitle   []AlbumKey // (artist NameLower, TitleLower)
	AlbumLexical          []AlbumKey // TitleLower
	AlbumRelease          []AlbumKey
	AlbumRuntime          []AlbumKey

	SongArtistAlbumReleaseTrack []SongKey // (artist NameLower, album release, track)
	SongArtistAlbumLexTrack     []SongKey // (artist NameLower, album TitleLower, track)
	SongLexical                 []SongKey // TitleLower
	SongRelease                 []SongKey
	SongRuntime                 []SongKey
}

// Collection is the full, immutable, in-memory music library snapshot:
// three parallel arenas plus precomputed orderings. It is exclusively
// owned by the Kernel and shared read-only with Audio, Search and
// front-ends via the *Collection handle itself (Go's garbage collector
// plays the role a reference-counted handle would play elsewhere: the
// last holder to drop its pointer lets the value be reclaimed).
type Collection struct {
	Artists []Artist
	Albums  []Album
	Songs   []Song

	Orderings Orderings

	CreatedAt time.Time
}

// Empty returns a zero-value Collection with a fresh timestamp, the
// starting point for every CCD rebuild.
func Empty() *Collection {
	return &Collection{CreatedAt: time.Now()}
}

// ArtistCount, AlbumCount and SongCount report arena sizes.
func (c *Collection) ArtistCount() int { return len(c.Artists) }
func (c *Collection) AlbumCount() int  { return len(c.Albums) }
func (c *Collection) SongCount() int   { return len(c.Songs) }

// Artist, Album and Song resolve a key to its entity. The second return
// value is false if the key is out of bounds; callers on the hot path
// (already-validated keys from a freshly built Collection) may ignore it,
// but any key sourced externally (e.g. from a persisted AudioState or
// Playlist) must check it.
func (c *Collection) Artist(k ArtistKey) (Artist, bool) {
	if k < 0 || int(k) >= len(c.Artists) {
		return Artist{}, false
	}
	return c.Artists[k], true
}

func (c *Collection) Album(k AlbumKey) (Album, bool) {
	if k < 0 || int(k) >= len(c.Albums) {
		return Album{}, false
	}
	return c.Albums[k], true
}

func (c *Collection) Song(k SongKey) (Song, bool) {
	if k < 0 || int(k) >= len(c.Songs) {
		return Song{}, false
	}
	return c.Songs[k], true
}
