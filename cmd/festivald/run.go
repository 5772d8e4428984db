package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/festivald/festivald/internal/config"
	"github.com/festivald/festivald/internal/kernel"
)

const logFilename = "festivald.log"

// runService boots and runs the Kernel until it exits, either because an
// Exit command was received or the process was sent a termination
// signal.
func runService(cmd *cobra.Command) error {
	syscall.Umask(0o027)

	paths, err := config.DefaultPaths()
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("preparing data directory: %w", err)
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	log, err := setupLogging(paths.LogDir, logLevel)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}

	disableWatch, _ := cmd.Flags().GetBool("disable-watch")
	k, err := kernel.New(log, paths, disableWatch)
	if err != nil {
		return fmt.Errorf("booting kernel: %w", err)
	}

	log.Info("festivald: starting")
	k.Run()
	log.Info("festivald: exited")
	return nil
}

// setupLogging parses logLevel (OFF|ERROR|INFO|WARN|DEBUG|TRACE) and
// returns a logrus.Entry writing to logDir/festivald.log. OFF has no
// logrus equivalent, so it is modeled as discarding all output instead
// of a log level.
func setupLogging(logDir, logLevel string) (*logrus.Entry, error) {
	log := logrus.New()

	if logLevel == "OFF" {
		log.SetOutput(io.Discard)
		return log.WithField("component", "festivald"), nil
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("unrecognized log level %q: %w", logLevel, err)
	}

	path := filepath.Join(logDir, logFilename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	log.SetOutput(f)
	log.SetLevel(level)
	return log.WithField("component", "festivald"), nil
}
