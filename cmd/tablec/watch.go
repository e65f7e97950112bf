package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Beefster09/table-lang/internal/source"
)

// watchLoop reparses the file on every change until interrupted. Writes that
// leave the content byte-identical are skipped via the source fingerprint.
func watchLoop(path, dumpFormat string, noColor bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	// watch the directory, not the file: editors replace files on save
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	lastPrint := ""
	run := func() {
		src, err := source.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tablec: unable to open file: %v\n", err)
			return
		}
		if src.Fingerprint() == lastPrint {
			return
		}
		lastPrint = src.Fingerprint()
		fmt.Fprintf(os.Stderr, "--- %s ---\n", path)
		parseOnce(path, dumpFormat, noColor)
	}
	run()

	// editors fire bursts of events per save; debounce them
	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || abs != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(50 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "tablec: watch error: %v\n", err)
		case <-pending:
			pending = nil
			run()
		}
	}
}
