// Package ccd implements the Collection Builder: the pipeline that walks a
// set of music directories and produces an immutable in-memory Collection
// (see internal/collection), reporting progress through each phase. Every
// run is a full rebuild from the roots: nothing is carried over from the
// Collection being replaced.
package ccd

import (
	"time"

	"github.com/festivald/festivald/internal/collection"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Phase identifies one of the eleven sequential CCD phases.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseDeconstruct
	PhaseWalkDir
	PhaseParse
	PhaseFix
	PhaseSort
	PhaseSearch
	PhasePrepare
	PhaseArt
	PhaseClone
	PhaseConvert
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "Start"
	case PhaseDeconstruct:
		return "Deconstruct"
	case PhaseWalkDir:
		return "WalkDir"
	case PhaseParse:
		return "Parse"
	case PhaseFix:
		return "Fix"
	case PhaseSort:
		return "Sort"
	case PhaseSearch:
		return "Search"
	case PhasePrepare:
		return "Prepare"
	case PhaseArt:
		return "Art"
	case PhaseClone:
		return "Clone"
	case PhaseConvert:
		return "Convert"
	default:
		return "Unknown"
	}
}

// Progress is one update emitted to the caller's progress sink as the
// builder moves through phases.
type Progress struct {
	Phase   Phase
	Percent float64
}

// ProgressFunc receives Progress updates. It must not block.
type ProgressFunc func(Progress)

// Options configures a single rebuild run. BuildSearch and Persist are
// injected hooks rather than direct package imports, so ccd has no
// dependency on internal/search or internal/persist and can be tested
// with either left nil.
type Options struct {
	// Roots are the directories to scan.
	Roots []string
	// Old is the Collection being replaced, retained only so the caller
	// can time its teardown against the Deconstruct phase; the builder
	// never reads from it.
	Old *collection.Collection
	// Progress receives phase/percent updates; may be nil.
	Progress ProgressFunc
	// BuildSearch builds the keyword index for the nearly-finished
	// Collection (the Search phase); nil skips that phase. Its return
	// value is handed back opaquely by Run's SearchIndex so the Kernel
	// doesn't need to build it a second time just to get a typed handle.
	BuildSearch func(*collection.Collection) (interface{}, error)
	// Persist writes the serializable copy to disk (the Convert/Finalize
	// phase); nil skips persistence, useful for tests.
	Persist func(*collection.Collection) error
}

// Builder runs one rebuild of a Collection.
type Builder struct {
	log  *logrus.Entry
	opts Options

	// SearchIndex holds whatever opts.BuildSearch returned, once Run has
	// completed the Search phase successfully. The caller type-asserts it
	// back to its own index type; ccd never inspects it.
	SearchIndex interface{}
}

func NewBuilder(log *logrus.Entry, opts Options) *Builder {
	return &Builder{log: log, opts: opts}
}

// Run executes all eleven phases in order. Any phase error aborts the
// rebuild; the caller is expected to keep using opts.Old.
func (b *Builder) Run() (*collection.Collection, error) {
	start := time.Now()
	printer := message.NewPrinter(language.English)

	b.report(PhaseStart, 0)
	b.log.Info("rebuild: starting")
	b.report(PhaseStart, 100)

	b.report(PhaseDeconstruct, 0)
	// The old Collection's destruction is driven by the caller (Kernel)
	// signaling other subsystems to drop their handles; the builder's own
	// reference (opts.Old) simply goes unused from here on.
	b.report(PhaseDeconstruct, 100)

	b.report(PhaseWalkDir, 0)
	paths, err := walkDirs(b.opts.Roots)
	if err != nil {
		return nil, errors.Wrap(err, "WalkDir")
	}
	b.log.Info(printer.Sprintf("rebuild: found %d candidate files", len(paths)))
	b.report(PhaseWalkDir, 100)

	b.report(PhaseParse, 0)
	state, parsed, skipped := parse(b.log, paths)
	b.log.Info(printer.Sprintf("rebuild: parsed %d files, skipped %d", parsed, skipped))
	b.report(PhaseParse, 100)

	c := &collection.Collection{
		Artists:   state.artists,
		Albums:    state.albums,
		Songs:     state.songs,
		CreatedAt: time.Now(),
	}

	b.report(PhaseFix, 0)
	fix(state)
	b.report(PhaseFix, 100)

	b.report(PhaseSort, 0)
	c.Orderings = computeOrderings(c)
	b.report(PhaseSort, 100)

	b.report(PhaseSearch, 0)
	if b.opts.BuildSearch != nil {
		idx, err := b.opts.BuildSearch(c)
		if err != nil {
			return nil, errors.Wrap(err, "Search")
		}
		b.SearchIndex = idx
	}
	b.report(PhaseSearch, 100)

	b.report(PhasePrepare, 0)
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "Prepare: built collection failed its own invariants")
	}
	b.report(PhasePrepare, 100)

	b.report(PhaseArt, 0)
	resolveArt(b.log, c)
	b.report(PhaseArt, 100)

	b.report(PhaseClone, 0)
	disk := cloneForDisk(b.log, c)
	b.report(PhaseClone, 100)

	b.report(PhaseConvert, 0)
	if b.opts.Persist != nil {
		if err := b.opts.Persist(disk); err != nil {
			return nil, errors.Wrap(err, "Convert/Finalize")
		}
	}
	b.report(PhaseConvert, 100)

	b.log.Info(printer.Sprintf(
		"rebuild: done in %s, %d artists, %d albums, %d songs",
		time.Since(start).Round(time.Millisecond), len(c.Artists), len(c.Albums), len(c.Songs),
	))

	return c, nil
}

func (b *Builder) report(phase Phase, percent float64) {
	if b.opts.Progress == nil {
		return
	}
	b.opts.Progress(Progress{Phase: phase, Percent: percent})
}

// cloneForDisk produces the serializable copy the Convert/Finalize phase
// writes to disk: a shallow copy of the arenas (orderings are read-only
// after Sort, so they are shared rather than re-copied) with every
// album's art converted back from Decoded to RawBytes/Unknown. The live
// in-memory Collection returned by Run keeps its Decoded art untouched.
func cloneForDisk(log *logrus.Entry, c *collection.Collection) *collection.Collection {
	disk := &collection.Collection{
		Artists:   append([]collection.Artist(nil), c.Artists...),
		Albums:    append([]collection.Album(nil), c.Albums...),
		Songs:     append([]collection.Song(nil), c.Songs...),
		Orderings: c.Orderings,
		CreatedAt: c.CreatedAt,
	}
	undecodeArt(log, disk)
	return disk
}
