package debounce

import "time"

const (
	DefaultTick          = time.Second
	DefaultWorkers       = 4
	DefaultShutdownGrace = 5 * time.Second
)
