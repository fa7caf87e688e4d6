package debounce

import (
	"context"
	"time"

	"dropwatch/internal/dispatcher"
	"dropwatch/internal/history"
	"dropwatch/internal/registry"
	"dropwatch/internal/rules"
)

// Registry is the tracked-file store the loop drains.
type Registry interface {
	SnapshotKeys() []string
	Peek(path string) (registry.Entry, bool)
	CompareAndRemove(path string, generation uint64) bool
	Len() int
}

// Checker decides whether a file has stopped growing.
type Checker interface {
	Check(ctx context.Context, path string) (bool, error)
}

// Dispatcher applies a rule's action to a stabilized file.
type Dispatcher interface {
	Dispatch(ctx context.Context, path string, rule *rules.Rule) (dispatcher.Result, error)
}

// Recorder keeps a journal of dispatch attempts.
type Recorder interface {
	Append(rec *history.Record) error
}

type Metrics interface {
	RecordCheck(result string)
	RecordDispatch(action, status string, d time.Duration)
	RecordEviction()
	SetTracked(n int)
}

type nopMetrics struct{}

func (nopMetrics) RecordCheck(string)                           {}
func (nopMetrics) RecordDispatch(string, string, time.Duration) {}
func (nopMetrics) RecordEviction()                              {}
func (nopMetrics) SetTracked(int)                               {}
