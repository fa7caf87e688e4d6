package watcher

import (
	"errors"
	"fmt"
)

var (
	ErrWatcherClosed = errors.New("watcher is closed")
	ErrInvalidPath   = errors.New("invalid path")
	ErrNotDirectory  = errors.New("source path is not a directory")
)

// WatchStartError means a rule's source directory could not be watched.
// It is fatal to that rule only.
type WatchStartError struct {
	Path string
	Err  error
}

func (e *WatchStartError) Error() string {
	return fmt.Sprintf("cannot watch %s: %v", e.Path, e.Err)
}

func (e *WatchStartError) Unwrap() error {
	return e.Err
}
