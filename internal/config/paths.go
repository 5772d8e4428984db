// Package config implements the Settings persisted configuration, the
// per-OS data directory layout, and migration between on-disk schema
// versions.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ValueKey threads config values through a context.Context using typed
// keys rather than bare strings, avoiding collisions with other
// packages' context values.
type ValueKey string

const (
	// KeySettings is the context key for the active Settings.
	KeySettings ValueKey = "settings"
	// KeyPaths is the context key for the active Paths.
	KeyPaths ValueKey = "paths"
)

// appDirName is the subdirectory created under the OS config root.
const appDirName = "festivald"

// Paths is the data directory layout: a single per-OS root containing a
// signal directory for file-based IPC, a state directory for the binary
// Collection/AudioState files and the JSON Settings/Playlist files, an art
// cache, and a log directory.
type Paths struct {
	Root     string
	SignalDir string
	StateDir  string
	ArtCacheDir string
	LogDir      string
}

// DefaultPaths resolves the per-OS application data root via
// os.UserConfigDir (XDG_CONFIG_HOME on Linux, Library/Application Support
// on macOS, %AppData% on Windows) and lays out festivald's subdirectories
// beneath it.
func DefaultPaths() (Paths, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, errors.Wrap(err, "resolving OS config directory")
	}
	return PathsFromRoot(filepath.Join(root, appDirName)), nil
}

// PathsFromRoot builds a Paths rooted at an explicit directory; tests use
// it to lay out a data directory under a temp dir.
func PathsFromRoot(root string) Paths {
	return Paths{
		Root:        root,
		SignalDir:   filepath.Join(root, "signal"),
		StateDir:    filepath.Join(root, "state"),
		ArtCacheDir: filepath.Join(root, "art_cache"),
		LogDir:      filepath.Join(root, "log"),
	}
}

// CollectionPath, AudioStatePath, PlaylistsPath and SettingsPath are the
// fixed filenames within StateDir.
func (p Paths) CollectionPath() string { return filepath.Join(p.StateDir, "collection.bin") }
func (p Paths) AudioStatePath() string { return filepath.Join(p.StateDir, "audio_state.bin") }
func (p Paths) PlaylistsPath() string  { return filepath.Join(p.StateDir, "playlists.json") }
func (p Paths) SettingsPath() string   { return filepath.Join(p.StateDir, "settings.json") }

// EnsureDirs creates every directory in the layout, applying a
// restrictive mode (0o750: group-readable, no world access).
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.Root, p.SignalDir, p.StateDir, p.ArtCacheDir, p.LogDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.Wrapf(err, "creating data directory %s", dir)
		}
	}
	return nil
}
