// Package watch monitors the open directory with fsnotify so images created
// or removed behind the browser's back flow into the session.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"galleria/internal/log"
)

// Op describes what happened to a path.
type Op int

const (
	// Added means a new image file appeared.
	Added Op = iota
	// Removed means an image file disappeared.
	Removed
)

// Event is one image change in the watched directory.
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// imageExtensions mirrors the scanner's idea of what counts as an image.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
}

// IsImagePath reports whether path looks like an image file.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Watcher watches one directory for image changes.
type Watcher struct {
	dir       string
	events    chan Event
	stopChan  chan struct{}
	fsWatcher *fsnotify.Watcher

	mutex   sync.Mutex
	running bool
}

// New creates a watcher for dir.
func New(dir string) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:       dir,
		events:    make(chan Event, 16),
		stopChan:  make(chan struct{}),
		fsWatcher: fsWatcher,
	}, nil
}

// Events returns the channel delivering image changes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins delivering events. It is idempotent.
func (w *Watcher) Start() {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return
	}
	w.running = true
	w.mutex.Unlock()

	log.With(log.F("directory", w.dir)).Info("watching directory")
	go w.loop()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopChan:
			return
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.With(log.F("error", err)).Warn("watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return
	}
	if !IsImagePath(ev.Name) {
		return
	}

	var op Op
	switch {
	case ev.Op.Has(fsnotify.Create):
		// Directories can match image extensions in odd setups; skip them.
		if info, err := os.Stat(ev.Name); err != nil || info.IsDir() {
			return
		}
		op = Added
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		op = Removed
	default:
		return
	}

	select {
	case w.events <- Event{Path: ev.Name, Op: op, Timestamp: time.Now()}:
	case <-w.stopChan:
	}
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopChan)
	w.fsWatcher.Close()
}
