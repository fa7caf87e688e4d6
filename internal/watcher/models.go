package watcher

import (
	"log/slog"
	"time"

	"dropwatch/internal/rules"
)

// Tracker receives sightings of matching files.
type Tracker interface {
	Upsert(path string, ts time.Time, rule *rules.Rule) bool
}

// Config holds optional DirectoryWatcher dependencies.
type Config struct {
	Logger  *slog.Logger
	Now     func() time.Time
	Metrics Metrics
	// IgnorePatterns skips files whose base name contains any of them.
	IgnorePatterns []string
}
