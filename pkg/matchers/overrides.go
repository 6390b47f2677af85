package matchers

import (
	"maps"
	"sync"
)

// Overrides is the configuration service consulted before the built-in
// table. A value is either a matcher kind or another content type.
type Overrides interface {
	Get(contentType string) (string, bool)
	Set(contentType, value string)
}

// DefaultOverrides is a process-wide table for callers that do not inject
// their own.
var DefaultOverrides = NewOverrideTable(nil)

// OverrideTable is an in-memory Overrides safe for concurrent use. Later
// writes replace earlier ones.
type OverrideTable struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewOverrideTable creates a table seeded with initial, which may be nil.
func NewOverrideTable(initial map[string]string) *OverrideTable {
	t := &OverrideTable{values: make(map[string]string, len(initial))}
	for k, v := range initial {
		if v != "" {
			t.values[k] = v
		}
	}
	return t
}

func (t *OverrideTable) Get(contentType string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[contentType]
	return v, ok
}

// Set stores an override. An empty value removes it.
func (t *OverrideTable) Set(contentType, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if value == "" {
		delete(t.values, contentType)
		return
	}
	t.values[contentType] = value
}

// Replace swaps the whole table in one step, e.g. after the configuration
// file changed.
func (t *OverrideTable) Replace(values map[string]string) {
	next := NewOverrideTable(values).values
	t.mu.Lock()
	t.values = next
	t.mu.Unlock()
}

// Snapshot returns a copy of the current overrides.
func (t *OverrideTable) Snapshot() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.values)
}
