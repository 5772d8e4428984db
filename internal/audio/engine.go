// Package audio implements the Audio Engine: the queue/transport state
// machine, driven by an injected OutputDevice so the same logic runs
// against a real backend or the simulated clock-driven one in
// internal/audio/simdevice.
package audio

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/festivald/festivald/internal/collection"
)

// DefaultPreviousThreshold is how far into a song Previous must be before
// it restarts the current song instead of moving the cursor back.
const DefaultPreviousThreshold = 3 * time.Second

// DefaultPersistInterval throttles how often the decode loop asks the
// Kernel to persist AudioState: writing on every tick would thrash disk
// for no observable benefit, so the loop only fires the hook at most once
// per interval.
const DefaultPersistInterval = 5 * time.Second

// pollInterval is how often the decode loop samples device.Position and
// applies the live volume level.
const pollInterval = 250 * time.Millisecond

// Engine owns the queue/transport state machine. It is safe for
// concurrent use from multiple front-ends.
type Engine struct {
	log    *logrus.Entry
	device OutputDevice

	mu  sync.Mutex
	col *collection.Collection
	st  AudioState

	volume atomic.Uint32 // mirrors st.Volume, read lock-free every tick

	raiseMainWindow atomic.Bool
	shouldExit      atomic.Bool

	previousThreshold time.Duration
	persistInterval   time.Duration
	persist           func(AudioState) error
	lastPersist       time.Time

	events chan Event

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Options configures a new Engine.
type Options struct {
	Device            OutputDevice
	Collection        *collection.Collection
	PreviousThreshold time.Duration // 0 means DefaultPreviousThreshold
	PersistInterval   time.Duration // 0 means DefaultPersistInterval
	Persist           func(AudioState) error
}

// New constructs an Engine with an empty queue and starts its decode loop.
// Callers restore prior state, if any, via RestoreAudioState.
func New(log *logrus.Entry, opts Options) *Engine {
	threshold := opts.PreviousThreshold
	if threshold == 0 {
		threshold = DefaultPreviousThreshold
	}
	interval := opts.PersistInterval
	if interval == 0 {
		interval = DefaultPersistInterval
	}
	e := &Engine{
		log:               log,
		device:            opts.Device,
		col:               opts.Collection,
		st:                emptyState(),
		previousThreshold: threshold,
		persistInterval:   interval,
		persist:           opts.Persist,
		lastPersist:       time.Now(),
		events:            make(chan Event, 16),
		stopCh:            make(chan struct{}),
	}
	e.volume.Store(uint32(e.st.Volume))
	e.wg.Add(1)
	go e.loop()
	return e
}

// Close stops the decode loop and releases the device.
func (e *Engine) Close() error {
	close(e.stopCh)
	e.wg.Wait()
	return e.device.Close()
}

// Events exposes asynchronous engine notifications to the Kernel.
func (e *Engine) Events() <-chan Event { return e.events }

// RaiseMainWindow and ShouldExit report and set the media-control flags a
// front-end polls: these are plain atomics, not queue messages, because
// they carry no payload and must never block behind a busy decode loop.
func (e *Engine) RaiseMainWindow() bool           { return e.raiseMainWindow.Swap(false) }
func (e *Engine) RequestRaiseMainWindow()         { e.raiseMainWindow.Store(true) }
func (e *Engine) ShouldExit() bool                { return e.shouldExit.Load() }
func (e *Engine) RequestExit()                    { e.shouldExit.Store(true) }

// SetCollection swaps the Collection handle the engine resolves Song
// paths and durations against. Called by the Kernel after a successful
// rebuild. Queue contents (SongKeys) are kept as they are and are not
// re-checked against c; an entry that no longer resolves is reported as
// EventPathError and skipped when the engine next loads it.
func (e *Engine) SetCollection(c *collection.Collection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.col = c
}

// Snapshot returns a copy of the current AudioState, safe to persist or
// inspect without racing the decode loop.
func (e *Engine) Snapshot() AudioState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cloneStateLocked()
}

func (e *Engine) cloneStateLocked() AudioState {
	cp := e.st
	cp.Queue = append([]collection.SongKey(nil), e.st.Queue...)
	cp.Volume = uint8(e.volume.Load())
	return cp
}

// triggerPersistLocked fires the persist hook from a background goroutine
// with a snapshot taken while the lock is still held, so every transport
// event that actually mutates state gets written without making the
// caller wait on disk I/O. The decode loop's tick also persists on its own
// throttled interval as a backstop against events this misses (e.g. a
// crash before the goroutine runs).
func (e *Engine) triggerPersistLocked() {
	if e.persist == nil {
		return
	}
	snap := e.cloneStateLocked()
	go func() {
		if err := e.persist(snap); err != nil {
			e.log.WithError(err).Warn("audio: persisting state failed")
		}
	}()
}

// Volume and SetVolume read/write the live volume level directly:
// front-ends mutate it without going through the message queue, and the
// decode loop applies it to the device every tick.
func (e *Engine) Volume() uint8 { return uint8(e.volume.Load()) }

func (e *Engine) SetVolume(v uint8) {
	if v > 100 {
		v = 100
	}
	e.volume.Store(uint32(v))
}

// Play starts or resumes playback of the current queue entry.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.Index < 0 && len(e.st.Queue) > 0 {
		e.st.Index = 0
	}
	if e.st.Index < 0 {
		return
	}
	e.st.Playing = true
	e.loadAndMaybePlayLocked()
	e.triggerPersistLocked()
}

// Pause suspends playback, preserving position.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Playing = false
	if err := e.device.Pause(); err != nil {
		e.emitLocked(Event{Kind: EventDeviceError, Message: err.Error()})
	}
	e.triggerPersistLocked()
}

// Toggle flips between Play and Pause.
func (e *Engine) Toggle() {
	e.mu.Lock()
	playing := e.st.Playing
	e.mu.Unlock()
	if playing {
		e.Pause()
	} else {
		e.Play()
	}
}

// Stop halts playback and clears the queue entirely.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Queue = nil
	e.st.Index = -1
	e.st.Position = 0
	e.st.Playing = false
	if err := e.device.Stop(); err != nil {
		e.emitLocked(Event{Kind: EventDeviceError, Message: err.Error()})
	}
	e.triggerPersistLocked()
}

// Clear empties the queue. If keepPlaying is true and transport was
// already playing, Playing is left untouched so a subsequent AddQueue
// with playAfter can resume without an intervening Play call; otherwise
// it behaves like Stop.
func (e *Engine) Clear(keepPlaying bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Queue = nil
	e.st.Index = -1
	e.st.Position = 0
	if !keepPlaying {
		e.st.Playing = false
	}
	if err := e.device.Stop(); err != nil {
		e.emitLocked(Event{Kind: EventDeviceError, Message: err.Error()})
	}
	e.triggerPersistLocked()
}

// Next advances the cursor according to the current RepeatMode.
func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advanceLocked()
	e.triggerPersistLocked()
}

// Previous restarts the current song if position is at or past the
// restart threshold (or the cursor is already at index 0), otherwise
// moves the cursor back one entry and restarts from there.
func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.Index < 0 {
		return
	}
	if e.st.Index == 0 || e.st.Position >= e.previousThreshold {
		e.restartCurrentLocked()
		e.triggerPersistLocked()
		return
	}
	e.st.Index--
	e.st.Position = 0
	e.loadAndMaybePlayLocked()
	e.triggerPersistLocked()
}

// SetQueueIndex jumps directly to position i. An out-of-range i ends the
// queue regardless of RepeatMode, mirroring what running off the end of a
// RepeatOff queue does.
func (e *Engine) SetQueueIndex(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setQueueIndexLocked(i)
}

// Skip moves the cursor forward by n entries. A target past the last
// entry ends the queue, exactly as an out-of-range SetQueueIndex does.
func (e *Engine) Skip(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setQueueIndexLocked(e.st.Index + n)
}

// Back moves the cursor backward by n entries (clamped to 0), without the
// threshold/restart logic Previous applies.
func (e *Engine) Back(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	target := e.st.Index - n
	if target < 0 {
		target = 0
	}
	e.setQueueIndexLocked(target)
}

// setQueueIndexLocked is SetQueueIndex's body, shared by Skip/Back which
// already hold the lock.
func (e *Engine) setQueueIndexLocked(i int) {
	if i < 0 || i >= len(e.st.Queue) {
		e.st.Index = -1
		e.st.Position = 0
		e.st.Playing = false
		if err := e.device.Stop(); err != nil {
			e.emitLocked(Event{Kind: EventDeviceError, Message: err.Error()})
		}
		e.triggerPersistLocked()
		return
	}
	e.st.Index = i
	e.st.Position = 0
	e.loadAndMaybePlayLocked()
	e.triggerPersistLocked()
}

// SetRepeat changes RepeatMode.
func (e *Engine) SetRepeat(mode RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Repeat = mode
	e.triggerPersistLocked()
}

// Seek moves within the current song, saturating at [0, song duration].
func (e *Engine) Seek(variant SeekVariant, amount time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.Index < 0 {
		return errors.New("audio: no current song")
	}
	dur := e.currentSongDurationLocked()
	var target time.Duration
	switch variant {
	case SeekAbsolute:
		target = amount
	case SeekForward:
		target = e.st.Position + amount
	case SeekBackward:
		target = e.st.Position - amount
	}
	if target < 0 {
		target = 0
	}
	if dur > 0 && target > dur {
		target = dur
	}
	if err := e.device.Seek(target); err != nil {
		e.emitLocked(Event{Kind: EventSeekError, Message: err.Error()})
		return err
	}
	e.st.Position = target
	e.triggerPersistLocked()
	return nil
}

// Shuffle randomizes queue order and resets the cursor to its start.
func (e *Engine) Shuffle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	rand.Shuffle(len(e.st.Queue), func(i, j int) {
		e.st.Queue[i], e.st.Queue[j] = e.st.Queue[j], e.st.Queue[i]
	})
	if len(e.st.Queue) > 0 {
		e.st.Index = 0
		e.st.Position = 0
		e.loadAndMaybePlayLocked()
	}
	e.triggerPersistLocked()
}

// RemoveQueueRange deletes queue entries in [lo, hi). If the current
// cursor falls inside the removed range, playback stops and the cursor
// becomes invalid; if it falls after the range, it shifts left to track
// the same entry.
func (e *Engine) RemoveQueueRange(lo, hi int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.st.Queue)
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo >= hi {
		return
	}
	straddles := e.st.Index >= lo && e.st.Index < hi
	e.st.Queue = append(e.st.Queue[:lo:lo], e.st.Queue[hi:]...)
	switch {
	case straddles:
		e.st.Index = -1
		e.st.Position = 0
		e.st.Playing = false
		if err := e.device.Stop(); err != nil {
			e.emitLocked(Event{Kind: EventDeviceError, Message: err.Error()})
		}
	case e.st.Index >= hi:
		e.st.Index -= hi - lo
	}
	e.triggerPersistLocked()
}

// AddQueueSong appends or prepends a single song.
func (e *Engine) AddQueueSong(key collection.SongKey, front, clearFirst, playAfter bool) {
	e.addQueue([]collection.SongKey{key}, front, clearFirst, playAfter)
}

// AddQueueAlbum appends or prepends every song owned by an album, in the
// album's own Songs order.
func (e *Engine) AddQueueAlbum(key collection.AlbumKey, front, clearFirst, playAfter bool) {
	e.mu.Lock()
	col := e.col
	e.mu.Unlock()
	if col == nil {
		return
	}
	alb, ok := col.Album(key)
	if !ok {
		return
	}
	e.addQueue(alb.Songs, front, clearFirst, playAfter)
}

// AddQueueArtist appends or prepends every song owned by an artist.
func (e *Engine) AddQueueArtist(key collection.ArtistKey, front, clearFirst, playAfter bool) {
	e.mu.Lock()
	col := e.col
	e.mu.Unlock()
	if col == nil {
		return
	}
	art, ok := col.Artist(key)
	if !ok {
		return
	}
	e.addQueue(art.Songs, front, clearFirst, playAfter)
}

func (e *Engine) addQueue(keys []collection.SongKey, front, clearFirst, playAfter bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if clearFirst {
		e.st.Queue = nil
		e.st.Index = -1
		e.st.Position = 0
	}
	if front {
		merged := make([]collection.SongKey, 0, len(keys)+len(e.st.Queue))
		merged = append(merged, keys...)
		merged = append(merged, e.st.Queue...)
		e.st.Queue = merged
		if e.st.Index >= 0 {
			e.st.Index += len(keys)
		}
	} else {
		e.st.Queue = append(e.st.Queue, keys...)
	}
	if playAfter {
		if e.st.Index < 0 && len(e.st.Queue) > 0 {
			e.st.Index = 0
			e.st.Position = 0
		}
		e.st.Playing = true
		e.loadAndMaybePlayLocked()
	}
	e.triggerPersistLocked()
}

// RestoreAudioState adopts a persisted snapshot as the engine's starting
// state, after validating its keys against the current Collection.
// Entries that no longer resolve are dropped; if that empties the queue
// or invalidates the cursor, playback does not resume.
func (e *Engine) RestoreAudioState(saved AudioState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	valid := make([]collection.SongKey, 0, len(saved.Queue))
	oldToNew := make(map[int]int, len(saved.Queue))
	for i, k := range saved.Queue {
		if e.col == nil {
			break
		}
		if _, ok := e.col.Song(k); ok {
			oldToNew[i] = len(valid)
			valid = append(valid, k)
		}
	}
	e.st.Queue = valid
	e.st.Repeat = saved.Repeat
	e.st.Position = saved.Position
	e.volume.Store(uint32(saved.Volume))
	e.st.Volume = saved.Volume
	if newIdx, ok := oldToNew[saved.Index]; ok {
		e.st.Index = newIdx
		e.st.Playing = saved.Playing
		e.loadAndMaybePlayLocked()
	} else {
		e.st.Index = -1
		e.st.Playing = false
	}
}

func (e *Engine) advanceLocked() {
	switch e.st.Repeat {
	case RepeatSong:
		e.st.Position = 0
		e.loadAndMaybePlayLocked()
	case RepeatQueue:
		e.st.Index = (e.st.Index + 1) % len(e.st.Queue)
		e.st.Position = 0
		e.loadAndMaybePlayLocked()
	case RepeatQueuePause:
		next := e.st.Index + 1
		if next >= len(e.st.Queue) {
			e.st.Index = 0
			e.st.Position = 0
			e.st.Playing = false
			e.loadOnlyLocked()
			return
		}
		e.st.Index = next
		e.st.Position = 0
		e.loadAndMaybePlayLocked()
	default: // RepeatOff
		next := e.st.Index + 1
		if next >= len(e.st.Queue) {
			e.st.Index = -1
			e.st.Position = 0
			e.st.Playing = false
			if err := e.device.Stop(); err != nil {
				e.emitLocked(Event{Kind: EventDeviceError, Message: err.Error()})
			}
			return
		}
		e.st.Index = next
		e.st.Position = 0
		e.loadAndMaybePlayLocked()
	}
}

func (e *Engine) restartCurrentLocked() {
	e.st.Position = 0
	if err := e.device.Seek(0); err != nil {
		e.emitLocked(Event{Kind: EventSeekError, Message: err.Error()})
	}
}

// loadAndMaybePlayLocked loads the current cursor's song into the device
// and, if Playing is true, starts it. On a missing or unresolvable file it
// emits EventPathError and advances past the bad entry instead of
// wedging the queue.
func (e *Engine) loadAndMaybePlayLocked() {
	if !e.loadOnlyLocked() {
		return
	}
	if e.st.Playing {
		if err := e.device.Play(); err != nil {
			e.emitLocked(Event{Kind: EventPlayError, Song: e.currentSongKeyLocked(), Message: err.Error()})
		}
	}
}

// loadOnlyLocked loads the current cursor entry without starting
// playback, returning false if there was nothing to load or the load
// failed (in which case it has already advanced past the bad entry).
func (e *Engine) loadOnlyLocked() bool {
	if e.st.Index < 0 || e.st.Index >= len(e.st.Queue) || e.col == nil {
		return false
	}
	key := e.st.Queue[e.st.Index]
	song, ok := e.col.Song(key)
	if !ok {
		e.emitLocked(Event{Kind: EventPathError, Song: key, Message: "song key no longer resolves"})
		e.advanceLocked()
		return false
	}
	if err := e.device.Load(song.Path); err != nil {
		e.emitLocked(Event{Kind: EventPathError, Song: key, Message: err.Error()})
		e.advanceLocked()
		return false
	}
	if err := e.device.Seek(e.st.Position); err != nil {
		e.emitLocked(Event{Kind: EventSeekError, Song: key, Message: err.Error()})
	}
	return true
}

func (e *Engine) currentSongKeyLocked() collection.SongKey {
	if e.st.Index < 0 || e.st.Index >= len(e.st.Queue) {
		return collection.SongKey(collection.InvalidKey)
	}
	return e.st.Queue[e.st.Index]
}

func (e *Engine) currentSongDurationLocked() time.Duration {
	if e.col == nil {
		return 0
	}
	key := e.currentSongKeyLocked()
	song, ok := e.col.Song(key)
	if !ok {
		return 0
	}
	return song.Runtime
}

func (e *Engine) emitLocked(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.WithField("kind", ev.Kind).Warn("audio: event dropped, channel full")
	}
}

// loop is the decode loop: it polls device position against the current
// song's known runtime to detect end-of-track, applies the live volume
// level every tick, and throttles persistence via persistInterval.
func (e *Engine) loop() {
	defer e.wg.Done()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	if err := e.device.SetVolume(uint8(e.volume.Load())); err != nil {
		e.mu.Lock()
		e.emitLocked(Event{Kind: EventDeviceError, Message: err.Error()})
		e.mu.Unlock()
	}

	e.mu.Lock()
	playing := e.st.Playing && e.st.Index >= 0
	e.mu.Unlock()
	if playing {
		pos, err := e.device.Position()
		if err != nil {
			e.mu.Lock()
			e.emitLocked(Event{Kind: EventDeviceError, Message: err.Error()})
			e.mu.Unlock()
		} else {
			e.mu.Lock()
			e.st.Position = pos
			dur := e.currentSongDurationLocked()
			ended := dur > 0 && pos >= dur
			if ended {
				e.advanceLocked()
			}
			e.mu.Unlock()
		}
	}

	if e.persist == nil {
		return
	}
	if time.Since(e.lastPersist) < e.persistInterval {
		return
	}
	e.lastPersist = time.Now()
	snap := e.Snapshot()
	if err := e.persist(snap); err != nil {
		e.log.WithError(err).Warn("audio: persisting state failed")
	}
}
