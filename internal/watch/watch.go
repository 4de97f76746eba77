// Package watch produces the refresh events of the live board view: a
// periodic tick and notifications when the connected board file changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 30 * time.Second

// EventKind says why the view should refresh.
type EventKind string

const (
	// EventTick is the periodic refresh of live durations.
	EventTick EventKind = "tick"
	// EventFileChanged means the connected file was written by someone else.
	EventFileChanged EventKind = "file_changed"
)

// Event is delivered on the Events channel.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Config configures a Watcher.
type Config struct {
	// Interval between ticks. Zero means DefaultInterval.
	Interval time.Duration
	// File is the connected board file to watch. Empty disables file events.
	File string
	// Logger for diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Watcher merges ticks and file changes onto one channel so the consumer
// handles them one at a time.
type Watcher struct {
	config Config
	logger *slog.Logger
	cron   *cron.Cron
	fsw    *fsnotify.Watcher
	events chan Event

	emitMu   sync.Mutex
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a Watcher. Nothing runs until Start.
func New(config Config) (*Watcher, error) {
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}
	if config.Interval < time.Second {
		return nil, fmt.Errorf("refresh interval %s is below one second", config.Interval)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		config: config,
		logger: logger,
		cron:   cron.New(),
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}, nil
}

// Events returns the channel of refresh events. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start schedules ticks and, when a file is configured, starts watching it.
// The watcher stops when ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	schedule := "@every " + w.config.Interval.String()
	if _, err := w.cron.AddFunc(schedule, func() { w.emit(EventTick) }); err != nil {
		return fmt.Errorf("scheduling refresh %q: %w", schedule, err)
	}

	if w.config.File != "" {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating file watcher: %w", err)
		}
		// Watch the directory: atomic saves replace the file's inode.
		dir := filepath.Dir(w.config.File)
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.fsw = fsw
		go w.processFileEvents()
	}

	w.cron.Start()
	w.logger.Debug("Watcher started", "interval", w.config.Interval, "file", w.config.File)

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.done:
		}
	}()
	return nil
}

// Stop halts ticks and file watching and closes the Events channel.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		<-w.cron.Stop().Done()
		if w.fsw != nil {
			_ = w.fsw.Close()
		}
		// Senders check done before sending; wait out any in-flight emit.
		w.emitMu.Lock()
		close(w.events)
		w.emitMu.Unlock()
	})
}

func (w *Watcher) processFileEvents() {
	target := filepath.Clean(w.config.File)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.emit(EventFileChanged)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// emit delivers an event without blocking; a full buffer drops it since the
// consumer will refresh anyway.
func (w *Watcher) emit(kind EventKind) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.events <- Event{Kind: kind, At: time.Now()}:
	default:
		w.logger.Debug("Dropped refresh event", "kind", kind)
	}
}
