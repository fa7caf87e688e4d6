// Package registry holds the set of tracked files shared between the
// directory watchers and the debounce loop.
package registry

import (
	"sort"
	"sync"
	"time"

	"dropwatch/internal/rules"
)

// Entry is the tracked state of one path.
type Entry struct {
	Path      string
	LastEvent time.Time
	Rule      *rules.Rule
	// Generation grows with every upsert of the path and identifies an arm
	// window.
	Generation uint64
}

// Registry is a mutex guarded map from absolute path to Entry.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
	gen     uint64
}

func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Upsert records an event for path. An existing entry keeps its rule and
// only has its timestamp re-armed. Reports whether the path was new.
func (r *Registry) Upsert(path string, ts time.Time, rule *rules.Rule) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	e, exists := r.entries[path]
	if !exists {
		e = Entry{Path: path, Rule: rule}
	}
	e.LastEvent = ts
	e.Generation = r.gen
	r.entries[path] = e

	return !exists
}

// SnapshotKeys returns the tracked paths at this instant, sorted.
func (r *Registry) SnapshotKeys() []string {
	r.mu.Lock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Peek returns the current entry for path. A missing entry means someone
// else already handled it.
func (r *Registry) Peek(path string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[path]
	return e, ok
}

// Remove deletes path. Removing an absent path is a no-op.
func (r *Registry) Remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, path)
}

// CompareAndRemove deletes path only if it has not been re-armed since
// generation was observed.
func (r *Registry) CompareAndRemove(path string, generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[path]
	if !ok || e.Generation != generation {
		return false
	}
	delete(r.entries, path)
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
