package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/festivald/festivald/internal/collection"
	"github.com/festivald/festivald/internal/config"
	"github.com/festivald/festivald/internal/watch"
)

var preamble = `festivald ` + Version + `

festivald is a local music library and player engine: it indexes a music
tree into an in-memory Collection and exposes playback through an Audio
Engine, controllable either in-process or via a second launch of this
same binary.`

var rootCmd = &cobra.Command{
	Use:     "festivald",
	Short:   "festivald music engine",
	Long:    preamble,
	Version: Version,
	RunE:    runRoot,
}

func init() {
	f := rootCmd.Flags()
	f.Bool("play", false, "resume playback")
	f.Bool("pause", false, "pause playback")
	f.Bool("toggle", false, "toggle play/pause")
	f.Bool("next", false, "advance to the next song")
	f.Bool("previous", false, "go to the previous song")
	f.Bool("stop", false, "stop playback and clear position")
	f.Bool("clear", false, "clear the queue")
	f.Bool("shuffle", false, "shuffle the queue")
	f.Bool("repeat-song", false, "set repeat mode to single song")
	f.Bool("repeat-queue", false, "set repeat mode to whole queue")
	f.Bool("repeat-off", false, "disable repeat")
	f.Int("volume", 0, "set volume (0-100)")
	f.Float64("seek", 0, "seek to an absolute position, in seconds")
	f.Float64("seek-forward", 0, "seek forward by N seconds")
	f.Float64("seek-backward", 0, "seek backward by N seconds")
	f.Int("index", 0, "jump to a 1-based queue position")
	f.Int("skip", 0, "skip forward N songs")
	f.Int("back", 0, "go back N songs")
	f.Bool("metadata", false, "print a JSON summary of the persisted collection and exit")
	f.Bool("disable-watch", false, "disable the file-signal watcher for this run")
	f.Bool("disable-media-controls", false, "disable OS media-control integration for this run")
	f.String("log-level", "INFO", "OFF|ERROR|INFO|WARN|DEBUG|TRACE")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}

// runRoot is the sole entry point for a festivald invocation: --metadata
// prints the persisted collection summary and exits, otherwise any launch
// with a command flag drops the corresponding signal file(s) for an
// already-running instance to pick up and exits immediately, and a launch
// with neither starts the full service.
func runRoot(cmd *cobra.Command, args []string) error {
	if changed(cmd, "metadata") {
		return printMetadata()
	}

	if isCommandInvocation(cmd) {
		return sendSignals(cmd)
	}

	return runService(cmd)
}

func changed(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name)
}

var commandFlags = []string{
	"play", "pause", "toggle", "next", "previous", "stop", "clear", "shuffle",
	"repeat-song", "repeat-queue", "repeat-off", "volume", "seek",
	"seek-forward", "seek-backward", "index", "skip", "back",
}

func isCommandInvocation(cmd *cobra.Command) bool {
	for _, name := range commandFlags {
		if changed(cmd, name) {
			return true
		}
	}
	return false
}

// sendSignals drops one signal file per changed command flag into the
// signal directory of an already-running instance.
func sendSignals(cmd *cobra.Command) error {
	paths, err := config.DefaultPaths()
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("preparing data directory: %w", err)
	}
	dir := paths.SignalDir

	flagSignal := func(name string, kind watch.Kind) error {
		if !changed(cmd, name) {
			return nil
		}
		return watch.WriteFlag(dir, kind)
	}
	seconds := func(name string) float64 {
		v, _ := cmd.Flags().GetFloat64(name)
		return v
	}
	ival := func(name string) int {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}

	actions := []func() error{
		func() error { return flagSignal("play", watch.Play) },
		func() error { return flagSignal("pause", watch.Pause) },
		func() error { return flagSignal("toggle", watch.Toggle) },
		func() error { return flagSignal("next", watch.Next) },
		func() error { return flagSignal("previous", watch.Previous) },
		func() error { return flagSignal("stop", watch.Stop) },
		func() error { return flagSignal("shuffle", watch.Shuffle) },
		func() error { return flagSignal("repeat-song", watch.RepeatSong) },
		func() error { return flagSignal("repeat-queue", watch.RepeatQueue) },
		func() error { return flagSignal("repeat-off", watch.RepeatOff) },
		func() error {
			if !changed(cmd, "clear") {
				return nil
			}
			return watch.WriteClear(dir, false)
		},
		func() error {
			if !changed(cmd, "volume") {
				return nil
			}
			return watch.WritePayload(dir, watch.Volume, uint64(ival("volume")))
		},
		func() error {
			if !changed(cmd, "seek") {
				return nil
			}
			return watch.WritePayload(dir, watch.Seek, uint64(time.Duration(seconds("seek")*float64(time.Second))))
		},
		func() error {
			if !changed(cmd, "seek-forward") {
				return nil
			}
			return watch.WritePayload(dir, watch.SeekForward, uint64(time.Duration(seconds("seek-forward")*float64(time.Second))))
		},
		func() error {
			if !changed(cmd, "seek-backward") {
				return nil
			}
			return watch.WritePayload(dir, watch.SeekBackward, uint64(time.Duration(seconds("seek-backward")*float64(time.Second))))
		},
		func() error {
			if !changed(cmd, "index") {
				return nil
			}
			return watch.WritePayload(dir, watch.Index, uint64(ival("index")))
		},
		func() error {
			if !changed(cmd, "skip") {
				return nil
			}
			return watch.WritePayload(dir, watch.Skip, uint64(ival("skip")))
		},
		func() error {
			if !changed(cmd, "back") {
				return nil
			}
			return watch.WritePayload(dir, watch.Back, uint64(ival("back")))
		},
	}

	for _, action := range actions {
		if err := action(); err != nil {
			return err
		}
	}
	return nil
}

// printMetadata loads the persisted collection read-only and prints a
// JSON summary, without starting the Kernel or touching the signal
// directory.
func printMetadata() error {
	paths, err := config.DefaultPaths()
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}
	col, err := collection.Load(paths.CollectionPath())
	if err != nil {
		return fmt.Errorf("loading collection: %w", err)
	}

	var runtime time.Duration
	for _, s := range col.Songs {
		runtime += s.Runtime
	}

	summary := struct {
		Artists      int           `json:"artists"`
		Albums       int           `json:"albums"`
		Songs        int           `json:"songs"`
		TotalRuntime time.Duration `json:"total_runtime_ns"`
		CreatedAt    time.Time     `json:"created_at"`
	}{
		Artists:      len(col.Artists),
		Albums:       len(col.Albums),
		Songs:        len(col.Songs),
		TotalRuntime: runtime,
		CreatedAt:    col.CreatedAt,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
