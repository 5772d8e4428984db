package ccd

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// walkDirs recursively enumerates every regular file under each root,
// returning paths in lexicographic order so later phases are deterministic
// regardless of the underlying filesystem's directory-entry order. Mime
// filtering happens later, in extractMetadata, so a root containing
// non-audio files is not itself an error.
func walkDirs(roots []string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return errors.Wrapf(err, "walking %s", path)
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(paths)
	return paths, nil
}
