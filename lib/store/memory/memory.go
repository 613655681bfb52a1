// Package memory implements the store interface in process memory. The history is lost on exit.
package memory

import (
	"sync"

	"github.com/tarancss/solview/lib/store"
)

// DefaultCapacity is the number of lookups kept per network.
const DefaultCapacity = 100

// Memory keeps the most recent lookups of each network.
type Memory struct {
	capacity int

	mu   sync.Mutex
	nets map[string][]store.Lookup // most recent first
}

// New returns an empty store keeping up to capacity lookups per network, DefaultCapacity if capacity <= 0.
func New(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Memory{capacity: capacity, nets: make(map[string][]store.Lookup)}
}

// AddLookup saves l as the most recent lookup of net, replacing a previous lookup of the same address.
func (m *Memory) AddLookup(net string, l store.Lookup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ls := m.nets[net]
	out := make([]store.Lookup, 0, len(ls)+1)
	out = append(out, l)

	for _, old := range ls {
		if old.Address != l.Address && len(out) < m.capacity {
			out = append(out, old)
		}
	}

	m.nets[net] = out

	return nil
}

// GetLookups returns up to limit lookups of net, most recent first. A limit <= 0 returns all of them.
func (m *Memory) GetLookups(net string, limit int) ([]store.Lookup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ls := m.nets[net]
	if limit > 0 && len(ls) > limit {
		ls = ls[:limit]
	}

	return append([]store.Lookup{}, ls...), nil
}
