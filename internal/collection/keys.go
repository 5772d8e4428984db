// Package collection implements the in-memory music library: the
// Artist/Album/Song arena graph, embedded art, and the precomputed key
// orderings that back sorted views without re-sorting on every query.
package collection

// ArtistKey, AlbumKey and SongKey are dense indices into the Collection's
// parallel arenas. They are never raw pointers so the whole graph can be
// serialized and reloaded without fixing up references.
type (
	ArtistKey int
	AlbumKey  int
	SongKey   int
)

// InvalidKey marks the absence of a key in an optional field.
const InvalidKey = -1
