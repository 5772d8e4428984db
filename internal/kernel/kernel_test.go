package kernel

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/festivald/festivald/internal/config"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	paths := config.PathsFromRoot(t.TempDir())
	k, err := New(testLog(), paths, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return k
}

func waitForEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %v", kind)
		}
	}
}

func TestNewDisableWatchOverridesSettings(t *testing.T) {
	paths := config.PathsFromRoot(t.TempDir())
	k, err := New(testLog(), paths, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if k.watcher != nil {
		t.Fatal("expected disableWatch override to leave the watcher unset")
	}
}

func TestNewBootsWithEmptyDataDir(t *testing.T) {
	k := newTestKernel(t)
	if k.col == nil {
		t.Fatal("expected an empty Collection, got nil")
	}
	if len(k.col.Artists) != 0 {
		t.Fatalf("expected empty collection, got %d artists", len(k.col.Artists))
	}
}

func TestRunDispatchesCommandsAndExits(t *testing.T) {
	k := newTestKernel(t)
	done := make(chan struct{})
	go func() {
		k.Run()
		close(done)
	}()

	reply := make(chan Event, 1)
	k.Submit(Command{Kind: CmdVolume, Volume: 42, Reply: reply})
	<-reply

	if got := k.engine.Volume(); got != 42 {
		t.Fatalf("expected volume 42, got %d", got)
	}

	k.Submit(Command{Kind: CmdExit})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after CmdExit")
	}
}

func TestRebuildSuccessBroadcastsNewCollection(t *testing.T) {
	k := newTestKernel(t)
	sub := k.Subscribe()
	done := make(chan struct{})
	go func() {
		k.Run()
		close(done)
	}()

	k.Submit(Command{Kind: CmdNewCollection, Roots: nil})
	ev := waitForEvent(t, sub, EvtNewCollection)
	if ev.ArtistCnt != 0 || ev.AlbumCnt != 0 || ev.SongCnt != 0 {
		t.Fatalf("expected an empty rebuilt collection, got %+v", ev)
	}

	k.Submit(Command{Kind: CmdExit})
	<-done
}

func TestRebuildFailureKeepsPreviousCollection(t *testing.T) {
	k := newTestKernel(t)
	original := k.col
	sub := k.Subscribe()
	done := make(chan struct{})
	go func() {
		k.Run()
		close(done)
	}()

	k.Submit(Command{Kind: CmdNewCollection, Roots: []string{filepath.Join(t.TempDir(), "does-not-exist")}})
	waitForEvent(t, sub, EvtFailed)

	k.colMu.RLock()
	current := k.col
	k.colMu.RUnlock()
	if current != original {
		t.Fatal("expected the Collection handle to be unchanged after a failed rebuild")
	}

	k.Submit(Command{Kind: CmdExit})
	<-done
}
