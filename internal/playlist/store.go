package playlist

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Save writes l as JSON to path, via a temp-file-plus-rename so readers
// never observe a half-written file.
func Save(path string, l *Library) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling playlist library")
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".playlists-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file in %s", dir)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "writing playlist library")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing playlist temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "renaming playlist file into %s", path)
	}
	return nil
}

// Load reads a Library from path. A missing file is not an error: it
// returns a fresh empty Library, matching first-run behavior.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewLibrary(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading playlist file %s", path)
	}
	var l Library
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrapf(err, "parsing playlist file %s", path)
	}
	if l.Playlists == nil {
		l.Playlists = make(map[string]Playlist)
	}
	return &l, nil
}
