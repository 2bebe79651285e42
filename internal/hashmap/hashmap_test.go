package hashmap

import (
	"sync"
	"testing"
	"time"
)

func TestNormalMapUpdate(t *testing.T) {
	m := NewNormal[string, int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Update("hits", func(current int, _ bool) int { return current + 1 })
		}()
	}
	wg.Wait()

	if got, ok := m.Lookup("hits"); !ok || got != 50 {
		t.Fatalf("Lookup(hits) = %d, %t; want 50, true", got, ok)
	}

	snapshot := m.Snapshot()
	snapshot["hits"] = 0
	if got, _ := m.Lookup("hits"); got != 50 {
		t.Errorf("modifying the snapshot changed the map: got %d", got)
	}

	m.Unset("hits")
	if m.Size() != 0 {
		t.Errorf("Size() = %d after Unset, want 0", m.Size())
	}
}

func TestExpiringMapHidesExpiredValues(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewExpiring[string, string](time.Minute)
	m.now = func() time.Time { return now }

	m.Set("alice", "admin")
	if got, ok := m.Lookup("alice"); !ok || got != "admin" {
		t.Fatalf("Lookup(alice) = %q, %t; want admin, true", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := m.Lookup("alice"); ok {
		t.Error("expired value is still visible")
	}
	if len(m.Snapshot()) != 0 {
		t.Error("expired value is part of the snapshot")
	}
	if m.Size() != 1 {
		t.Errorf("Size() = %d before cleanup, want 1", m.Size())
	}

	m.removeExpired()
	if m.Size() != 0 {
		t.Errorf("Size() = %d after cleanup, want 0", m.Size())
	}
}

func TestExpiringMapUpdateTreatsExpiredAsUnset(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewExpiring[string, int](time.Minute)
	m.now = func() time.Time { return now }

	m.Set("counter", 5)
	now = now.Add(time.Hour)

	got := m.Update("counter", func(current int, ok bool) int {
		if ok {
			t.Error("expired value was passed as set")
		}
		return current + 1
	})
	if got != 1 {
		t.Errorf("Update() = %d, want 1", got)
	}
}
