package hashmap

import (
	"time"

	"github.com/skybi/compliance-console/internal/task"
)

type expiringEntry[T any] struct {
	raw      T
	inserted time.Time
}

// ExpiringMap implements the Map interface on top of a NormalMap and hides values older than its lifetime.
// Expired values are removed from memory by the cleanup task only.
type ExpiringMap[K comparable, V any] struct {
	normal      *NormalMap[K, *expiringEntry[V]]
	lifetime    time.Duration
	now         func() time.Time
	cleanupTask *task.RepeatingTask
}

var _ Map[int, any] = (*ExpiringMap[int, any])(nil)

// NewExpiring creates a new expiring map whose values exist for a specific lifetime
func NewExpiring[K comparable, V any](lifetime time.Duration) *ExpiringMap[K, V] {
	return &ExpiringMap[K, V]{
		normal:   NewNormal[K, *expiringEntry[V]](),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// ScheduleCleanupTask schedules the task that removes expired values in a specific interval.
// StopCleanupTask has to be called as soon as the map is no longer needed.
func (m *ExpiringMap[K, V]) ScheduleCleanupTask(tick time.Duration) {
	if m.cleanupTask != nil {
		return
	}
	m.cleanupTask = task.NewRepeating(m.removeExpired, tick)
	m.cleanupTask.Start()
}

// StopCleanupTask stops the cleanup task
func (m *ExpiringMap[K, V]) StopCleanupTask() {
	if m.cleanupTask == nil {
		return
	}
	m.cleanupTask.Stop(true)
	m.cleanupTask = nil
}

func (m *ExpiringMap[K, V]) removeExpired() {
	now := m.now()
	m.normal.manipulate(func(raw map[K]*expiringEntry[V]) {
		for key, val := range raw {
			if m.expired(val, now) {
				delete(raw, key)
			}
		}
	})
}

func (m *ExpiringMap[K, V]) expired(entry *expiringEntry[V], now time.Time) bool {
	return now.Sub(entry.inserted) > m.lifetime
}

// Size returns the amount of stored key-value pairs, including expired ones not yet cleaned up
func (m *ExpiringMap[K, V]) Size() int {
	return m.normal.Size()
}

// Lookup returns the value assigned to the given key if it has not expired yet
func (m *ExpiringMap[K, V]) Lookup(key K) (V, bool) {
	val, ok := m.normal.Lookup(key)
	if !ok || m.expired(val, m.now()) {
		var zero V
		return zero, false
	}
	return val.raw, true
}

// Set sets a key-value pair and resets its lifetime
func (m *ExpiringMap[K, V]) Set(key K, value V) {
	m.normal.Set(key, &expiringEntry[V]{
		raw:      value,
		inserted: m.now(),
	})
}

// Update atomically replaces the value assigned to the given key and resets its lifetime.
// An expired value is passed to fn as unset.
func (m *ExpiringMap[K, V]) Update(key K, fn func(current V, ok bool) V) V {
	now := m.now()
	entry := m.normal.Update(key, func(current *expiringEntry[V], ok bool) *expiringEntry[V] {
		var raw V
		if ok && !m.expired(current, now) {
			raw = current.raw
		} else {
			ok = false
		}
		return &expiringEntry[V]{
			raw:      fn(raw, ok),
			inserted: now,
		}
	})
	return entry.raw
}

// Unset deletes the value assigned to given key
func (m *ExpiringMap[K, V]) Unset(key K) {
	m.normal.Unset(key)
}

// Snapshot returns a copy of all key-value pairs that have not expired yet
func (m *ExpiringMap[K, V]) Snapshot() map[K]V {
	now := m.now()
	snapshot := make(map[K]V)
	for key, val := range m.normal.Snapshot() {
		if !m.expired(val, now) {
			snapshot[key] = val.raw
		}
	}
	return snapshot
}

// Clear removes all key-value pairs
func (m *ExpiringMap[K, V]) Clear() {
	m.normal.Clear()
}
