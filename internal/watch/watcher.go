package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rjeczalik/notify"
	"github.com/sirupsen/logrus"
)

// debounceInterval batches signal files that land in the same instant
// (e.g. a CLI invocation that drops both a flag and a payload file)
// before priority rules and cancellation are applied.
const debounceInterval = 50 * time.Millisecond

// Watcher watches a signal directory for file-create events and emits
// resolved Signal values. Missing directories and read errors are logged
// and otherwise ignored: the watcher never stalls the Kernel over a bad
// signal file.
type Watcher struct {
	dir string
	log *logrus.Entry

	out  chan Signal
	errs chan error

	pending    map[string]struct{}
	pendingMu  sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New starts watching dir for create events, creating dir first if it
// does not exist.
func New(log *logrus.Entry, dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "creating signal dir %s", dir)
	}
	w := &Watcher{
		dir:     dir,
		log:     log,
		out:     make(chan Signal, 32),
		errs:    make(chan error, 8),
		pending: make(map[string]struct{}),
		stopCh:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Signals returns the channel of resolved commands for the Kernel.
func (w *Watcher) Signals() <-chan Signal { return w.out }

// Errors returns the channel of non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stopCh)
	w.wg.Wait()
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	events := make(chan notify.EventInfo, 16)
	if err := notify.Watch(filepath.Join(w.dir, "..."), events, notify.Create); err != nil {
		w.emitErr(errors.Wrapf(err, "watching signal dir %s", w.dir))
		return
	}
	defer notify.Stop(events)

	ticker := time.NewTicker(debounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case ev := <-events:
			w.pendingMu.Lock()
			w.pending[ev.Path()] = struct{}{}
			w.pendingMu.Unlock()
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	names := make([]string, 0, len(w.pending))
	for p := range w.pending {
		names = append(names, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	present := make(map[Kind][]byte)
	for _, p := range names {
		k, ok := kindsByFilename[filepath.Base(p)]
		if !ok {
			continue // not one of our signal filenames, ignore
		}
		data, err := os.ReadFile(p)
		if err != nil && !os.IsNotExist(err) {
			w.emitErr(errors.Wrapf(err, "reading signal file %s", p))
		}
		present[k] = data
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			w.emitErr(errors.Wrapf(err, "removing signal file %s", p))
		}
	}

	for _, sig := range resolve(present) {
		select {
		case w.out <- sig:
		default:
			w.log.Warn("watch: signal dropped, channel full")
		}
	}
}

// resolve applies the priority/cancellation rules to a batch of signal
// kinds observed in a single debounce window, then decodes every payload
// signal present.
func resolve(present map[Kind][]byte) []Signal {
	var out []Signal

	switch {
	case has(present, Stop):
		out = append(out, Signal{Kind: Stop})
	case has(present, Pause):
		out = append(out, Signal{Kind: Pause})
	case has(present, Play):
		out = append(out, Signal{Kind: Play})
	case has(present, Toggle):
		out = append(out, Signal{Kind: Toggle})
	}

	_, hasNext := present[Next]
	_, hasPrev := present[Previous]
	switch {
	case hasNext && hasPrev:
		// cancel: neither fires
	case hasNext:
		out = append(out, Signal{Kind: Next})
	case hasPrev:
		out = append(out, Signal{Kind: Previous})
	}

	for _, k := range []Kind{Shuffle, RepeatSong, RepeatQueue, RepeatOff} {
		if has(present, k) {
			out = append(out, Signal{Kind: k})
		}
	}

	for k, data := range present {
		if !k.isPayload() {
			continue
		}
		sig, err := decodePayload(k, data)
		if err != nil {
			continue
		}
		out = append(out, sig)
	}

	return out
}

func has(present map[Kind][]byte, k Kind) bool {
	_, ok := present[k]
	return ok
}

func (w *Watcher) emitErr(err error) {
	select {
	case w.errs <- err:
	default:
		w.log.WithError(err).Warn("watch: error channel full, dropping")
	}
	w.log.WithError(err).Debug("watch: non-fatal error")
}
