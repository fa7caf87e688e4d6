package watcher

// Metrics is the subset of pipeline metrics a watcher reports.
type Metrics interface {
	RecordEvent()
	RecordWatchError()
}

type nopMetrics struct{}

func (nopMetrics) RecordEvent()      {}
func (nopMetrics) RecordWatchError() {}
