// Package watcher reports debounced changes to a single file.
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename-over still produce events.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the kind of change detected.
type EventType int

const (
	EventFileWritten EventType = iota
	EventFileRemoved
)

func (t EventType) String() string {
	switch t {
	case EventFileWritten:
		return "file_written"
	case EventFileRemoved:
		return "file_removed"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Event is a change to the watched file.
type Event struct {
	Type EventType
	Path string
}

// Watcher monitors one file and emits debounced events.
type Watcher struct {
	path string

	fsWatcher *fsnotify.Watcher
	events    chan Event
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once // Ensures done channel is only closed once

	debouncer *debouncer

	wg sync.WaitGroup
}

const (
	defaultDebounceDelay = 100 * time.Millisecond
	defaultEventsBuffer  = 16
	defaultErrorsBuffer  = 4
)

// New creates a watcher for path using the default debounce delay (100ms).
func New(path string) (*Watcher, error) {
	return NewWithDebounceDelay(path, defaultDebounceDelay)
}

// NewWithDebounceDelay creates a watcher with a configurable debounce delay.
// The file itself need not exist yet; its directory must.
func NewWithDebounceDelay(path string, delay time.Duration) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}

	dir := filepath.Dir(absPath)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		path:      absPath,
		fsWatcher: fsw,
		events:    make(chan Event, defaultEventsBuffer),
		errors:    make(chan error, defaultErrorsBuffer),
		done:      make(chan struct{}),
		debouncer: newDebouncer(delay),
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run()
	}()

	return w, nil
}

func (w *Watcher) run() {
	defer close(w.events)
	defer close(w.errors)

	for {
		select {
		case <-w.done:
			return
		case evt, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if translated := w.translateEvent(evt); translated != nil {
				w.emitEvent(*translated)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.emitError(err)
		}
	}
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Events returns a channel of debounced file events.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns a channel of watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops the watcher and releases OS resources.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}

	w.closeOnce.Do(func() {
		close(w.done)
	})

	// Closing the underlying watcher unblocks the run loop.
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) emitEvent(e Event) {
	select {
	case w.events <- e:
	default:
		// Best-effort: drop if consumer is stalled.
	}
}

func (w *Watcher) emitError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

func (w *Watcher) translateEvent(e fsnotify.Event) *Event {
	if w == nil || e.Name == "" {
		return nil
	}
	if filepath.Clean(e.Name) != w.path {
		return nil
	}

	switch {
	case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename-over save shows up as Rename followed by Create; only
		// report removal when the file is really gone.
		if _, err := os.Stat(w.path); err == nil {
			return w.written()
		}
		return &Event{Type: EventFileRemoved, Path: w.path}
	case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
		return w.written()
	default:
		return nil
	}
}

func (w *Watcher) written() *Event {
	if !w.debouncer.ShouldEmit() {
		return nil
	}
	return &Event{Type: EventFileWritten, Path: w.path}
}

// debouncer collapses the burst of events one save produces (an editor
// typically emits Rename, Create, Write and Chmod within a few
// milliseconds) into the first of them. The window is measured from the
// last emitted event, so a file rewritten continuously still reloads once
// per delay.
type debouncer struct {
	delay time.Duration
	now   func() time.Time

	mu      sync.Mutex
	last    time.Time
	emitted bool
}

func newDebouncer(delay time.Duration) *debouncer {
	if delay <= 0 {
		delay = defaultDebounceDelay
	}
	return &debouncer{delay: delay, now: time.Now}
}

// ShouldEmit reports whether a change seen now starts a new burst.
func (d *debouncer) ShouldEmit() bool {
	if d == nil {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.emitted && now.Sub(d.last) < d.delay {
		return false
	}
	d.last = now
	d.emitted = true
	return true
}
