package kernel

import (
	"github.com/festivald/festivald/internal/ccd"
	"github.com/festivald/festivald/internal/collection"
	"github.com/festivald/festivald/internal/playlist"
	"github.com/festivald/festivald/internal/search"
)

// startRebuild launches a CCD run in the background. A second request
// while one is already in flight is rejected rather than queued or
// stacked: only one rebuild runs at a time.
func (k *Kernel) startRebuild(roots []string) {
	if !k.rebuilding.CompareAndSwap(false, true) {
		k.broadcast(Event{Kind: EvtFailed})
		return
	}

	k.colMu.RLock()
	old := k.col
	k.colMu.RUnlock()

	builder := ccd.NewBuilder(k.log.WithField("sub", "ccd"), ccd.Options{
		Roots: roots,
		Old:   old,
		Progress: func(p ccd.Progress) {
			// Progress updates are informational only; no subscriber
			// currently consumes them, but the hook stays wired so a
			// future front-end can without touching the builder.
		},
		BuildSearch: func(c *collection.Collection) (interface{}, error) {
			return search.Build(c), nil
		},
		Persist: func(c *collection.Collection) error {
			return collection.Save(k.paths.CollectionPath(), c, &k.savingFlag)
		},
	})

	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		col, err := builder.Run()
		var idx *search.Index
		if err == nil {
			idx, _ = builder.SearchIndex.(*search.Index)
		}
		k.rebuildDone <- rebuildResult{col: col, idx: idx, err: err}
	}()
}

// finishRebuild installs a successful rebuild's Collection and Index as
// the new live handles, or keeps the previous ones on failure.
func (k *Kernel) finishRebuild(res rebuildResult) {
	defer k.rebuilding.Store(false)

	if res.err != nil {
		k.log.WithError(res.err).Warn("kernel: rebuild failed, keeping previous collection")
		k.broadcast(Event{Kind: EvtFailed, Err: res.err})
		return
	}

	k.colMu.Lock()
	k.col = res.col
	k.colMu.Unlock()

	k.idxMu.Lock()
	k.idx = res.idx
	k.idxMu.Unlock()

	k.engine.SetCollection(res.col)

	k.playlistsMu.Lock()
	playlist.Resolve(k.playlists, res.col)
	k.playlistsMu.Unlock()

	k.broadcast(Event{
		Kind:      EvtNewCollection,
		ArtistCnt: len(res.col.Artists),
		AlbumCnt:  len(res.col.Albums),
		SongCnt:   len(res.col.Songs),
	})
}
