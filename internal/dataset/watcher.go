package dataset

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the watcher waits after the last change before
// reporting it. Editors and copy tools often write a file in several steps.
const DefaultSettle = 200 * time.Millisecond

// Watcher reports changes to a dataset file.
//
// It watches the file's directory rather than the file itself so that atomic
// replacements (write to temp, rename over) keep being observed.
type Watcher struct {
	path     string
	settle   time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
}

// NewWatcher starts watching path. onChange runs in its own goroutine once
// the file has been quiet for settle.
func NewWatcher(path string, settle time.Duration, onChange func()) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	log.Printf("Watching dataset file for changes: %s", abs)

	return &Watcher{
		path:     abs,
		settle:   settle,
		onChange: onChange,
		watcher:  fw,
	}, nil
}

// Run delivers change notifications until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			log.Printf("Warning: failed to close dataset file watcher: %v", err)
		}
	}()

	var mu sync.Mutex
	var timer *time.Timer
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			// React to write, create and rename events (editors often use atomic writes)
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
				continue
			}
			log.Printf("Dataset file changed: %s (event: %s)", event.Name, event.Op.String())

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.settle, func() {
				if ctx.Err() == nil {
					w.onChange()
				}
			})
			mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Dataset file watcher error: %v", err)
		}
	}
}
