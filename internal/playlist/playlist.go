// Package playlist implements user-defined playlists: name-keyed lists of
// song references that survive a Collection rebuild because each entry's
// SongKey is re-resolved from its artist/album/title triple.
package playlist

import "github.com/festivald/festivald/internal/collection"

// CurrentSchema is bumped whenever Library's on-disk JSON shape changes
// incompatibly.
const CurrentSchema = 1

// Entry is a single playlist member. Key is the last-resolved SongKey;
// Invalid is set when Resolve couldn't find a matching song in the
// current Collection, in which case Artist/Album/Title are the only
// remaining identity and the entry is skipped on export.
type Entry struct {
	Key     collection.SongKey
	Invalid bool
	Artist  string
	Album   string
	Title   string
}

// NewEntry captures a song's identity triple alongside its current key,
// so the entry can be re-resolved after a future rebuild even if the key
// itself changes.
func NewEntry(key collection.SongKey, artist, album, title string) Entry {
	return Entry{Key: key, Artist: artist, Album: album, Title: title}
}

// Playlist is an ordered, named list of entries.
type Playlist struct {
	Name    string
	Entries []Entry
}

// Library is the full set of playlists, keyed by name, plus a schema
// version for the JSON persistence format.
type Library struct {
	SchemaVersion int
	Playlists     map[string]Playlist
}

// NewLibrary returns an empty Library at the current schema version.
func NewLibrary() *Library {
	return &Library{
		SchemaVersion: CurrentSchema,
		Playlists:     make(map[string]Playlist),
	}
}

// Create adds an empty playlist under name, replacing any existing one.
func (l *Library) Create(name string) {
	l.Playlists[name] = Playlist{Name: name}
}

// Delete removes a playlist. It is a no-op if name doesn't exist.
func (l *Library) Delete(name string) {
	delete(l.Playlists, name)
}

// Rename moves a playlist from oldName to newName. It reports false if
// oldName doesn't exist or newName is already taken.
func (l *Library) Rename(oldName, newName string) bool {
	if oldName == newName {
		_, ok := l.Playlists[oldName]
		return ok
	}
	p, ok := l.Playlists[oldName]
	if !ok {
		return false
	}
	if _, taken := l.Playlists[newName]; taken {
		return false
	}
	p.Name = newName
	l.Playlists[newName] = p
	delete(l.Playlists, oldName)
	return true
}

// Append adds entries to the end of a playlist, creating it if absent.
func (l *Library) Append(name string, entries ...Entry) {
	p := l.Playlists[name]
	p.Name = name
	p.Entries = append(p.Entries, entries...)
	l.Playlists[name] = p
}

// RemoveAt deletes the entry at index i. It is a no-op if i is out of
// range or name doesn't exist.
func (l *Library) RemoveAt(name string, i int) {
	p, ok := l.Playlists[name]
	if !ok || i < 0 || i >= len(p.Entries) {
		return
	}
	p.Entries = append(p.Entries[:i:i], p.Entries[i+1:]...)
	l.Playlists[name] = p
}
