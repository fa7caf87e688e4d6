package watcher

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dropwatch/internal/lib/logger/sl"
	"dropwatch/internal/rules"

	"github.com/fsnotify/fsnotify"
)

// DirectoryWatcher watches the source directory of one rule,
// non-recursively, and records matching files in a Tracker.
type DirectoryWatcher struct {
	watcher *fsnotify.Watcher
	rule    *rules.Rule
	tracker Tracker
	config  Config
	logger  *slog.Logger

	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
	closed    bool
	closeOnce sync.Once
}

func NewDirectoryWatcher(rule *rules.Rule, tracker Tracker, config Config) (*DirectoryWatcher, error) {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Metrics == nil {
		config.Metrics = nopMetrics{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &DirectoryWatcher{
		watcher:  watcher,
		rule:     rule,
		tracker:  tracker,
		config:   config,
		logger:   config.Logger.With(slog.String("source", rule.SourcePath)),
		stopChan: make(chan struct{}),
	}, nil
}

// Start subscribes to the rule's source directory and begins forwarding
// events. A failure is returned as *WatchStartError.
func (dw *DirectoryWatcher) Start() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.closed {
		return ErrWatcherClosed
	}
	if dw.started {
		return nil
	}

	path := dw.rule.SourcePath
	info, err := os.Stat(path)
	if err != nil {
		return &WatchStartError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidPath, err)}
	}
	if !info.IsDir() {
		return &WatchStartError{Path: path, Err: ErrNotDirectory}
	}

	if err := dw.watcher.Add(path); err != nil {
		return &WatchStartError{Path: path, Err: err}
	}

	dw.started = true
	dw.wg.Add(1)
	go dw.run()

	dw.logger.Info("watching started",
		slog.String("pattern", dw.rule.FilePattern),
		slog.String("target", dw.rule.TargetPath),
		slog.String("action", dw.rule.Action.String()),
	)
	return nil
}

func (dw *DirectoryWatcher) run() {
	defer dw.wg.Done()

	for {
		select {
		case <-dw.stopChan:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if dw.shouldProcessEvent(event) {
				dw.processEvent(event)
			}
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.handleError(err)
		}
	}
}

func (dw *DirectoryWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&WatchedEvents == 0 {
		return false
	}

	name := filepath.Base(event.Name)
	for _, pattern := range dw.config.IgnorePatterns {
		if strings.Contains(name, pattern) {
			dw.logger.Debug("ignoring file", slog.String("path", event.Name), slog.String("ignore_pattern", pattern))
			return false
		}
	}

	if !dw.rule.Matches(event.Name) {
		dw.logger.Debug("ignoring file: pattern mismatch", slog.String("path", event.Name))
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		dw.logger.Debug("ignoring file: gone before tracking", slog.String("path", event.Name), sl.Err(err))
		return false
	}
	if info.IsDir() {
		dw.logger.Debug("ignoring directory", slog.String("path", event.Name))
		return false
	}

	return true
}

func (dw *DirectoryWatcher) processEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	dw.config.Metrics.RecordEvent()
	if dw.tracker.Upsert(path, dw.config.Now(), dw.rule) {
		dw.logger.Info("[DETECTED]", slog.String("path", path))
		return
	}
	dw.logger.Debug("re-armed", slog.String("path", path), slog.String("op", event.Op.String()))
}

func (dw *DirectoryWatcher) handleError(err error) {
	dw.config.Metrics.RecordWatchError()
	dw.logger.Error("watcher error", sl.Err(err))
}

// Close stops event delivery and waits for the event goroutine to exit.
func (dw *DirectoryWatcher) Close() error {
	var err error
	dw.closeOnce.Do(func() {
		dw.mu.Lock()
		dw.closed = true
		dw.mu.Unlock()

		close(dw.stopChan)
		dw.wg.Wait()

		if cerr := dw.watcher.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
	})
	return err
}

func (dw *DirectoryWatcher) Rule() *rules.Rule {
	return dw.rule
}
