package ccd

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/festivald/festivald/internal/collection"
	"github.com/sirupsen/logrus"
)

var folderImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true,
}

// resolveArt runs the Art phase: every album with embedded picture bytes
// gets them decoded and square-cropped to collection.ArtSize; an album
// without embedded art falls back to the first image file found (by
// lexical order) in its parent directory; an album with neither keeps
// Art.Unknown.
func resolveArt(log *logrus.Entry, c *collection.Collection) {
	for i := range c.Albums {
		a := &c.Albums[i]

		if a.Art.Kind() == collection.ArtUnknown {
			if raw, ok := folderImage(a.Dir); ok {
				a.Art = collection.NewRawArt(raw)
			}
		}

		if a.Art.Kind() != collection.ArtRaw {
			continue
		}
		decoded, err := a.Art.Decode()
		if err != nil {
			log.WithField("album", a.Title).WithError(err).Warn("could not decode album art, leaving raw")
			continue
		}
		a.Art = decoded
	}
}

// folderImage returns the bytes of the lexically-first supported image
// file directly inside dir, or false if none exists.
func folderImage(dir string) ([]byte, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if folderImageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, false
	}
	sort.Strings(names)

	data, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		return nil, false
	}
	return data, true
}

// undecodeArt converts every album's Decoded art back to RawBytes (or
// Unknown), the Clone phase's core operation: the only form allowed to
// cross into the serializable copy that gets written to disk.
func undecodeArt(log *logrus.Entry, c *collection.Collection) {
	for i := range c.Albums {
		a := &c.Albums[i]
		undecoded, err := a.Art.Undecode()
		if err != nil {
			log.WithField("album", a.Title).WithError(err).Warn("could not re-encode album art, dropping it")
			a.Art = collection.NoArt
			continue
		}
		a.Art = undecoded
	}
}
