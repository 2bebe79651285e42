package hashmap

import "sync"

// NormalMap implements the Map interface by wrapping the builtin map type with a RWMutex
type NormalMap[K comparable, V any] struct {
	mtx        sync.RWMutex
	underlying map[K]V
}

var _ Map[int, any] = (*NormalMap[int, any])(nil)

// NewNormal creates a new normal thread safe Map
func NewNormal[K comparable, V any]() *NormalMap[K, V] {
	return &NormalMap[K, V]{
		underlying: make(map[K]V),
	}
}

// Size returns the amount of stored key-value pairs
func (m *NormalMap[K, V]) Size() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.underlying)
}

// Lookup returns the value assigned to the given key and a boolean indicating if a value was assigned at all
func (m *NormalMap[K, V]) Lookup(key K) (V, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	val, ok := m.underlying[key]
	return val, ok
}

// Set sets a key-value pair
func (m *NormalMap[K, V]) Set(key K, value V) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.underlying[key] = value
}

// Update atomically replaces the value assigned to the given key with the result of fn
func (m *NormalMap[K, V]) Update(key K, fn func(current V, ok bool) V) V {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	current, ok := m.underlying[key]
	updated := fn(current, ok)
	m.underlying[key] = updated
	return updated
}

// Unset deletes the value assigned to given key
func (m *NormalMap[K, V]) Unset(key K) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	delete(m.underlying, key)
}

// Snapshot returns a copy of all stored key-value pairs
func (m *NormalMap[K, V]) Snapshot() map[K]V {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	snapshot := make(map[K]V, len(m.underlying))
	for key, val := range m.underlying {
		snapshot[key] = val
	}
	return snapshot
}

// Clear removes all key-value pairs
func (m *NormalMap[K, V]) Clear() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.underlying = make(map[K]V)
}

// manipulate runs action while holding the write lock
func (m *NormalMap[K, V]) manipulate(action func(underlying map[K]V)) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	action(m.underlying)
}
