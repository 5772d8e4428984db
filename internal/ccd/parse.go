package ccd

import (
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// parseWorkers sizes the Parse phase's bounded pool to roughly a quarter
// of available hardware threads, leaving headroom for the rest of the
// process.
func parseWorkers() int {
	n := runtime.NumCPU() / 4
	if n < 1 {
		n = 1
	}
	return n
}

// parse runs the Parse phase: a bounded worker pool extracts metadata from
// each path with no lock held, then appends the result into the shared
// arenas under buildState's lock. Per-file failures are logged at Debug
// and do not abort the rebuild; the phase itself never errors.
func parse(log *logrus.Entry, paths []string) (*buildState, int, int) {
	state := newBuildState()

	jobs := make(chan string)
	var wg sync.WaitGroup

	var parsedCount, skippedCount int
	var countMu sync.Mutex

	workers := parseWorkers()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				rec, err := extractMetadata(path)
				if err != nil {
					if isSkip(err) {
						log.WithField("path", path).Debug(err.Error())
					} else {
						log.WithField("path", path).WithError(err).Debug("parse: unexpected error, skipping")
					}
					countMu.Lock()
					skippedCount++
					countMu.Unlock()
					continue
				}
				state.add(rec)
				countMu.Lock()
				parsedCount++
				countMu.Unlock()
			}
		}()
	}

	for _, p := range paths {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	return state, parsedCount, skippedCount
}
