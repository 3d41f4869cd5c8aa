package game

import (
	"sync"

	"pinochle-platform/internal/analytics"
	"pinochle-platform/pkg/pinochle"
)

// Registry maps table names to tables, creating them on first join.
// Tables are never destroyed.
type Registry struct {
	shuffler pinochle.Shuffler
	events   analytics.Recorder
	tables   map[string]*Table
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry whose tables share the given
// shuffler and event recorder.
func NewRegistry(shuffler pinochle.Shuffler, events analytics.Recorder) *Registry {
	return &Registry{
		shuffler: shuffler,
		events:   events,
		tables:   make(map[string]*Table),
	}
}

// GetOrCreate returns the named table, inserting a fresh one when absent.
// The read path fast-fails; insertion re-checks under the write lock. The
// caller joins the table after both locks are released.
func (r *Registry) GetOrCreate(name string) *Table {
	r.mu.RLock()
	table := r.tables[name]
	r.mu.RUnlock()
	if table != nil {
		return table
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if table := r.tables[name]; table != nil {
		return table
	}
	table = NewTable(name, r.shuffler, r.events)
	r.tables[name] = table
	TablesActive.Inc()
	return table
}

// Get returns the named table, or nil.
func (r *Registry) Get(name string) *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tables[name]
}

// Infos returns the REST view of every table.
func (r *Registry) Infos() []TableInfo {
	r.mu.RLock()
	tables := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		tables = append(tables, t)
	}
	r.mu.RUnlock()

	infos := make([]TableInfo, 0, len(tables))
	for _, t := range tables {
		infos = append(infos, t.Info())
	}
	return infos
}
