package status

import (
	"sort"
	"sync"
)

// MetricMap is a concurrent registry keyed by name. The map itself is
// guarded by a mutex; pointers handed out by Get stay valid for the life
// of the map, so hot paths cache them and update lock-free.
type MetricMap[T any] struct {
	mu      sync.RWMutex
	entries map[string]*T
}

// NewMetricMap returns an empty MetricMap.
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{
		entries: make(map[string]*T),
	}
}

// Get returns the entry for key, allocating it on first use. The same
// pointer is returned for every call with the same key.
func (m *MetricMap[T]) Get(key string) *T {
	m.mu.RLock()
	ptr, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return ptr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another goroutine may have won the race.
	if ptr, ok := m.entries[key]; ok {
		return ptr
	}

	ptr = new(T)
	m.entries[key] = ptr
	return ptr
}

// Has reports whether key has been registered.
func (m *MetricMap[T]) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok
}

// Range calls fn for every entry in ascending key order.
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return
	}

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fn(k, m.entries[k])
	}
}

// Count returns the number of registered entries.
func (m *MetricMap[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
