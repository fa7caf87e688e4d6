package watcher

import (
	"github.com/fsnotify/fsnotify"
)

// WatchedEvents are the operations that (re-)arm a tracked file. Rename and
// Remove are reported for the old name only and never arm anything; a file
// moved into the directory arrives as Create.
var WatchedEvents = fsnotify.Create | fsnotify.Write
