// ABOUTME: Inbox watcher that ingests CSV files dropped into a directory.
// ABOUTME: Uses fsnotify with a settle delay, then moves files to processed/ or failed/.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Subdirectories of the inbox that receive handled files.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// WatchOptions tune a Watcher.
type WatchOptions struct {
	// Settle is how long a file must stay quiet before it is read.
	Settle time.Duration
	// OnResult is called after each file is handled. err is set when the file could not be parsed.
	OnResult func(path string, result *Result, err error)
	Logger   *log.Logger
}

// Watcher ingests CSV files appearing in an inbox directory.
type Watcher struct {
	dir         string
	coordinator *Coordinator
	settle      time.Duration
	onResult    func(string, *Result, error)
	logger      *log.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a Watcher for dir.
func NewWatcher(dir string, coordinator *Coordinator, opts WatchOptions) *Watcher {
	settle := opts.Settle
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Watcher{
		dir:         dir,
		coordinator: coordinator,
		settle:      settle,
		onResult:    opts.OnResult,
		logger:      logger.With("inbox", dir),
		timers:      map[string]*time.Timer{},
	}
}

// Run watches until ctx is cancelled. CSV files already present are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	for _, sub := range []string{ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0750); err != nil {
			return fmt.Errorf("create %s directory: %w", sub, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	existing, err := w.pending()
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.handle(ctx, path)
	}

	ready := make(chan string)
	defer w.stopTimers()

	w.logger.Info("watching inbox")
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !isCSV(event.Name) || !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.schedule(ctx, event.Name, ready)

		case path := <-ready:
			w.handle(ctx, path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	result, err := w.ingestFile(ctx, path)

	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		w.logger.Error("import failed", "file", filepath.Base(path), "err", err)
	} else {
		w.logger.Info("imported", "file", filepath.Base(path), "accepted", result.Accepted, "rejected", len(result.Rejected))
	}

	target := filepath.Join(w.dir, dest, filepath.Base(path))
	if _, statErr := os.Stat(path); statErr == nil {
		if mvErr := os.Rename(path, target); mvErr != nil {
			w.logger.Error("move file", "file", filepath.Base(path), "err", mvErr)
		}
	}

	if w.onResult != nil {
		w.onResult(path, result, err)
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return w.coordinator.IngestRows(ctx, rows), nil
}

func (w *Watcher) pending() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && isCSV(e.Name()) {
			paths = append(paths, filepath.Join(w.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
