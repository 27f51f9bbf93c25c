// Package watcher re-imports a bulk map file whenever it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"spheremap/internal/codec"
	"spheremap/internal/normalize"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 500 * time.Millisecond

// Importer receives the sifted document. *service.Dashboard implements it.
type Importer interface {
	Import(ctx context.Context, b *normalize.Bulk) error
}

// Watcher watches a file for changes
type Watcher struct {
	path     string
	onChange func(ctx context.Context, path string) error
	debounce time.Duration
}

// New creates a new file watcher
func New(path string, onChange func(ctx context.Context, path string) error) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
}

// NewImportWatcher watches path and posts its parsed contents to imp on
// every change
func NewImportWatcher(path string, imp Importer) *Watcher {
	return New(path, func(ctx context.Context, path string) error {
		return ImportFile(ctx, imp, path)
	})
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch starts watching the file for changes.
// It blocks until the context is cancelled or an error occurs.
// Failures of onChange are logged and watching continues.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}

	// Watch the directory so replace-on-save editors keep working
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	log.Printf("Watching %s for changes", abs)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Name != abs && filepath.Base(event.Name) != filepath.Base(abs) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			log.Printf("File changed: %s", abs)
			if err := w.onChange(ctx, abs); err != nil {
				log.Printf("Failed to apply %s: %v", abs, err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ImportFile parses path with the codec its extension selects and posts the
// result to imp
func ImportFile(ctx context.Context, imp Importer, path string) error {
	c, err := codec.ForPath(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bulk, err := codec.Decode(c, f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if n := bulk.Report.Skipped(); n > 0 {
		log.Printf("Skipped %d invalid records in %s", n, path)
	}
	return imp.Import(ctx, bulk)
}
