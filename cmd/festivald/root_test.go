package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/festivald/festivald/internal/collection"
	"github.com/festivald/festivald/internal/config"
	"github.com/festivald/festivald/internal/persist"
	"github.com/festivald/festivald/internal/watch"
)

// newRootTestCmd builds a fresh *cobra.Command carrying the same flags as
// rootCmd, so tests can set flags without mutating the package-level
// singleton between runs.
func newRootTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "festivald"}
	f := cmd.Flags()
	f.Bool("play", false, "")
	f.Bool("pause", false, "")
	f.Bool("toggle", false, "")
	f.Bool("next", false, "")
	f.Bool("previous", false, "")
	f.Bool("stop", false, "")
	f.Bool("clear", false, "")
	f.Bool("shuffle", false, "")
	f.Bool("repeat-song", false, "")
	f.Bool("repeat-queue", false, "")
	f.Bool("repeat-off", false, "")
	f.Int("volume", 0, "")
	f.Float64("seek", 0, "")
	f.Float64("seek-forward", 0, "")
	f.Float64("seek-backward", 0, "")
	f.Int("index", 0, "")
	f.Int("skip", 0, "")
	f.Int("back", 0, "")
	f.Bool("metadata", false, "")
	f.Bool("disable-watch", false, "")
	f.Bool("disable-media-controls", false, "")
	f.String("log-level", "INFO", "")
	return cmd
}

func withTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestIsCommandInvocation(t *testing.T) {
	cmd := newRootTestCmd()
	if isCommandInvocation(cmd) {
		t.Fatal("expected no command flags to be set")
	}

	if err := cmd.Flags().Set("volume", "10"); err != nil {
		t.Fatalf("Set volume: %v", err)
	}
	if !isCommandInvocation(cmd) {
		t.Fatal("expected --volume to count as a command invocation")
	}
}

func TestIsCommandInvocationIgnoresAmbientFlags(t *testing.T) {
	cmd := newRootTestCmd()
	if err := cmd.Flags().Set("disable-watch", "true"); err != nil {
		t.Fatalf("Set disable-watch: %v", err)
	}
	if err := cmd.Flags().Set("log-level", "DEBUG"); err != nil {
		t.Fatalf("Set log-level: %v", err)
	}
	if isCommandInvocation(cmd) {
		t.Fatal("ambient flags must not count as a command invocation")
	}
}

func TestSendSignalsWritesFlagSignal(t *testing.T) {
	withTempConfigDir(t)
	cmd := newRootTestCmd()
	if err := cmd.Flags().Set("next", "true"); err != nil {
		t.Fatalf("Set next: %v", err)
	}

	if err := sendSignals(cmd); err != nil {
		t.Fatalf("sendSignals: %v", err)
	}

	paths, err := config.DefaultPaths()
	if err != nil {
		t.Fatalf("DefaultPaths: %v", err)
	}
	if _, err := os.Stat(filepath.Join(paths.SignalDir, watch.Next.String())); err != nil {
		t.Fatalf("expected next signal file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(paths.SignalDir, watch.Play.String())); !os.IsNotExist(err) {
		t.Fatalf("expected no play signal file, got err=%v", err)
	}
}

func TestSendSignalsWritesPayloadSignal(t *testing.T) {
	withTempConfigDir(t)
	cmd := newRootTestCmd()
	if err := cmd.Flags().Set("volume", "42"); err != nil {
		t.Fatalf("Set volume: %v", err)
	}

	if err := sendSignals(cmd); err != nil {
		t.Fatalf("sendSignals: %v", err)
	}

	paths, err := config.DefaultPaths()
	if err != nil {
		t.Fatalf("DefaultPaths: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(paths.SignalDir, watch.Volume.String()))
	if err != nil {
		t.Fatalf("reading volume signal file: %v", err)
	}
	if len(data) != 1 || data[0] != 42 {
		t.Fatalf("expected volume payload [42], got %v", data)
	}
}

func TestSendSignalsWritesSeekForwardSignal(t *testing.T) {
	withTempConfigDir(t)
	cmd := newRootTestCmd()
	if err := cmd.Flags().Set("seek-forward", "2.5"); err != nil {
		t.Fatalf("Set seek-forward: %v", err)
	}

	if err := sendSignals(cmd); err != nil {
		t.Fatalf("sendSignals: %v", err)
	}

	paths, err := config.DefaultPaths()
	if err != nil {
		t.Fatalf("DefaultPaths: %v", err)
	}
	if _, err := os.Stat(filepath.Join(paths.SignalDir, watch.SeekForward.String())); err != nil {
		t.Fatalf("expected seek_forward signal file: %v", err)
	}
}

func TestPrintMetadataReportsPersistedCollection(t *testing.T) {
	withTempConfigDir(t)
	paths, err := config.DefaultPaths()
	if err != nil {
		t.Fatalf("DefaultPaths: %v", err)
	}
	if err := paths.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	col := collection.Empty()
	col.Artists = make([]collection.Artist, 2)
	col.Albums = make([]collection.Album, 3)
	col.Songs = []collection.Song{
		{Runtime: 3 * time.Minute},
		{Runtime: 4 * time.Minute},
		{Runtime: 5 * time.Minute},
	}
	col.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var savingFlag persist.SavingFlag
	if err := collection.Save(paths.CollectionPath(), col, &savingFlag); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	if err := printMetadata(); err != nil {
		t.Fatalf("printMetadata: %v", err)
	}
	w.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}

	var summary struct {
		Artists      int           `json:"artists"`
		Albums       int           `json:"albums"`
		Songs        int           `json:"songs"`
		TotalRuntime time.Duration `json:"total_runtime_ns"`
		CreatedAt    time.Time     `json:"created_at"`
	}
	if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}

	if summary.Artists != 2 || summary.Albums != 3 || summary.Songs != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.TotalRuntime != 12*time.Minute {
		t.Fatalf("expected total runtime 12m, got %v", summary.TotalRuntime)
	}
	if !summary.CreatedAt.Equal(col.CreatedAt) {
		t.Fatalf("expected CreatedAt %v, got %v", col.CreatedAt, summary.CreatedAt)
	}
}
