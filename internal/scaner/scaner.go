// Package scaner arms files that were already sitting in a source
// directory when its watcher started. It never descends into
// subdirectories.
package scaner

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dropwatch/internal/lib/logger/sl"
	"dropwatch/internal/rules"
)

type Tracker interface {
	Upsert(path string, ts time.Time, rule *rules.Rule) bool
}

type FileScaner struct {
	tracker Tracker
	log     *slog.Logger
	now     func() time.Time
	ignore  []string
}

// New builds a FileScaner. Files whose name contains any of ignore are
// skipped.
func New(tracker Tracker, log *slog.Logger, ignore ...string) *FileScaner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileScaner{
		tracker: tracker,
		log:     log,
		now:     time.Now,
		ignore:  ignore,
	}
}

// ScanRule arms every regular file directly under the rule's source
// directory whose name matches the rule's pattern. It returns how many
// new entries were created.
func (fs *FileScaner) ScanRule(rule *rules.Rule) (int, error) {
	entries, err := os.ReadDir(rule.SourcePath)
	if err != nil {
		return 0, fmt.Errorf("read source directory: %w", err)
	}

	armed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if fs.ignored(entry.Name()) {
			continue
		}

		path := filepath.Join(rule.SourcePath, entry.Name())
		if !rule.Matches(path) {
			continue
		}

		// follows symlinks the same way the watcher does
		info, err := os.Stat(path)
		if err != nil {
			fs.log.Debug("skipping existing file", slog.String("path", path), sl.Err(err))
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		if fs.tracker.Upsert(path, fs.now(), rule) {
			fs.log.Info("[DETECTED]", slog.String("path", path), slog.Bool("existing", true))
			armed++
		}
	}
	return armed, nil
}

func (fs *FileScaner) ignored(name string) bool {
	for _, pattern := range fs.ignore {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}
