// Package kernel implements the central coordinator: it owns the current
// Collection, multiplexes front-end commands, Watcher signals and Audio
// Engine events over a single select loop, and orchestrates Collection
// rebuilds.
package kernel

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/festivald/festivald/internal/audio"
	"github.com/festivald/festivald/internal/audio/simdevice"
	"github.com/festivald/festivald/internal/collection"
	"github.com/festivald/festivald/internal/config"
	"github.com/festivald/festivald/internal/persist"
	"github.com/festivald/festivald/internal/playlist"
	"github.com/festivald/festivald/internal/search"
	"github.com/festivald/festivald/internal/watch"
)

// Kernel is the process's single coordinator. Exactly one is created per
// run; front-ends talk to it exclusively through Submit.
type Kernel struct {
	log      *logrus.Entry
	paths    config.Paths
	settings config.Settings

	colMu sync.RWMutex
	col   *collection.Collection

	idxMu sync.RWMutex
	idx   *search.Index

	engine  *audio.Engine
	watcher *watch.Watcher

	playlistsMu sync.Mutex
	playlists   *playlist.Library

	savingFlag persist.SavingFlag

	commands chan Command

	subsMu sync.Mutex
	subs   []chan Event

	rebuilding  atomic.Bool
	rebuildDone chan rebuildResult

	stopCh chan struct{}
	wg     sync.WaitGroup
}

type rebuildResult struct {
	col *collection.Collection
	idx *search.Index
	err error
}

// New boots the Kernel: loads Settings, the persisted Collection and
// AudioState, starts the Audio Engine and (unless disabled) the
// Watcher, then returns a Kernel ready for Run. disableWatch forces the
// Watcher off for this run regardless of the persisted Settings value,
// letting a one-off --disable-watch invocation override the saved
// default without rewriting it.
func New(log *logrus.Entry, paths config.Paths, disableWatch bool) (*Kernel, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings(paths.SettingsPath())
	if err != nil {
		log.WithError(err).Warn("kernel: settings failed to load, using defaults")
		settings = config.DefaultSettings()
	}
	if disableWatch {
		settings.DisableWatch = true
	}

	col, err := collection.Load(paths.CollectionPath())
	if err != nil {
		log.WithError(err).Info("kernel: no usable persisted collection, starting empty")
		col = collection.Empty()
	}
	decodeAllArt(log, col)

	playlists, err := playlist.Load(paths.PlaylistsPath())
	if err != nil {
		log.WithError(err).Warn("kernel: playlists failed to load, starting empty")
		playlists = playlist.NewLibrary()
	}
	playlist.Resolve(playlists, col)

	k := &Kernel{
		log:         log,
		paths:       paths,
		settings:    settings,
		col:         col,
		idx:         search.Build(col),
		playlists:   playlists,
		commands:    make(chan Command, 32),
		rebuildDone: make(chan rebuildResult, 1),
		stopCh:      make(chan struct{}),
	}

	k.engine = audio.New(log.WithField("sub", "audio"), audio.Options{
		Device:            simdevice.New(),
		Collection:        col,
		PreviousThreshold: settings.PreviousThreshold,
		Persist: func(st audio.AudioState) error {
			return audio.SaveState(paths.AudioStatePath(), st, &k.savingFlag)
		},
	})

	saved, err := audio.LoadState(paths.AudioStatePath())
	if err != nil {
		log.WithError(err).Warn("kernel: audio state failed to load, starting empty")
	} else {
		k.engine.RestoreAudioState(saved)
	}

	if !settings.DisableWatch {
		w, err := watch.New(log.WithField("sub", "watch"), paths.SignalDir)
		if err != nil {
			log.WithError(err).Warn("kernel: watcher failed to start, file-signal IPC disabled")
		} else {
			k.watcher = w
		}
	}

	return k, nil
}

// decodeAllArt converts every album's art from its on-disk RawBytes form
// to the in-memory Decoded form before the Collection is ever shared, as
// the CCD's own Art phase does: art that fails to decode is logged and
// stays in its Raw form.
func decodeAllArt(log *logrus.Entry, c *collection.Collection) {
	for i := range c.Albums {
		decoded, err := c.Albums[i].Art.Decode()
		if err != nil {
			log.WithError(err).WithField("album", c.Albums[i].Title).Warn("kernel: art decode failed")
			continue
		}
		c.Albums[i].Art = decoded
	}
}

// Submit enqueues a front-end command. It never blocks indefinitely: the
// command channel is buffered, and a full buffer indicates the Kernel
// itself is stuck, which Submit surfaces as a dropped command rather
// than wedging the caller.
func (k *Kernel) Submit(cmd Command) bool {
	select {
	case k.commands <- cmd:
		return true
	default:
		return false
	}
}

// Subscribe registers a channel for broadcast Events (NewCollection,
// Failed, DeviceError, PlayError, SeekError, PathError). A broadcast
// raised while a command is handled (e.g. a SeekError) reaches every
// subscriber before that command's own reply; a rebuild's NewCollection
// or Failed broadcast arrives later, after the command has been
// acknowledged.
func (k *Kernel) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	k.subsMu.Lock()
	k.subs = append(k.subs, ch)
	k.subsMu.Unlock()
	return ch
}

func (k *Kernel) broadcast(ev Event) {
	k.subsMu.Lock()
	defer k.subsMu.Unlock()
	for _, ch := range k.subs {
		select {
		case ch <- ev:
		default:
			k.log.Warn("kernel: subscriber channel full, event dropped")
		}
	}
}

// Run is the Kernel's message loop: it multiplexes front-end commands,
// engine events, watcher signals, in-flight rebuild completion and OS
// termination signals until Exit (command or signal) tears it down.
func (k *Kernel) Run() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	var watchSignals <-chan watch.Signal
	var watchErrs <-chan error
	if k.watcher != nil {
		watchSignals = k.watcher.Signals()
		watchErrs = k.watcher.Errors()
	}

	for {
		select {
		case <-interrupt:
			k.log.Info("kernel: OS signal received, exiting")
			k.shutdown()
			return

		case cmd := <-k.commands:
			if k.handle(cmd) {
				k.shutdown()
				if cmd.Reply != nil {
					cmd.Reply <- Event{Kind: EvtExit}
				}
				return
			}

		case sig := <-watchSignals:
			k.handleSignal(sig)

		case err := <-watchErrs:
			k.log.WithError(err).Warn("kernel: watcher error")

		case ev := <-k.engine.Events():
			k.broadcast(engineEventToKernelEvent(ev))

		case res := <-k.rebuildDone:
			k.finishRebuild(res)
		}
	}
}

func engineEventToKernelEvent(ev audio.Event) Event {
	switch ev.Kind {
	case audio.EventDeviceError:
		return Event{Kind: EvtDeviceError, Err: errorFromMessage(ev.Message), SongKey: ev.Song}
	case audio.EventPlayError:
		return Event{Kind: EvtPlayError, Err: errorFromMessage(ev.Message), SongKey: ev.Song}
	case audio.EventSeekError:
		return Event{Kind: EvtSeekError, Err: errorFromMessage(ev.Message), SongKey: ev.Song}
	default:
		return Event{Kind: EvtPathError, Err: errorFromMessage(ev.Message), SongKey: ev.Song}
	}
}

// shutdown persists AudioState one last time and waits for any in-flight
// write to clear before Run returns.
func (k *Kernel) shutdown() {
	snap := k.engine.Snapshot()
	if err := audio.SaveState(k.paths.AudioStatePath(), snap, &k.savingFlag); err != nil {
		k.log.WithError(err).Warn("kernel: final audio state save failed")
	}
	if err := playlist.Save(k.paths.PlaylistsPath(), k.playlists); err != nil {
		k.log.WithError(err).Warn("kernel: final playlist save failed")
	}
	for k.savingFlag.Saving() {
		// Exit waits for the Saving flag to clear; there is no hard
		// deadline.
	}
	_ = k.engine.Close()
	if k.watcher != nil {
		_ = k.watcher.Close()
	}
	k.broadcast(Event{Kind: EvtExit})
}

func errorFromMessage(msg string) error {
	if msg == "" {
		return nil
	}
	return simpleError(msg)
}

type simpleError string

func (e simpleError) Error() string { return string(e) }
