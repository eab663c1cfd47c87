package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestMapBasicOperations(t *testing.T) {
	m := New[int]()

	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %v)", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get of missing key must fail")
	}
	if !m.Has("b") || m.Has("missing") {
		t.Error("Has mismatch")
	}
	if m.Count() != 2 {
		t.Errorf("Count = %d", m.Count())
	}

	m.Delete("a")
	if m.Has("a") {
		t.Error("Delete did not remove the key")
	}
}

func TestMapSetIfAbsent(t *testing.T) {
	m := New[string]()

	if !m.SetIfAbsent("k", "first") {
		t.Error("first SetIfAbsent must win")
	}
	if m.SetIfAbsent("k", "second") {
		t.Error("second SetIfAbsent must lose")
	}
	if v, _ := m.Get("k"); v != "first" {
		t.Errorf("got %q", v)
	}
}

func TestMapPop(t *testing.T) {
	m := New[int]()
	m.Set("k", 42)

	if v, ok := m.Pop("k"); !ok || v != 42 {
		t.Errorf("Pop = (%d, %v)", v, ok)
	}
	if _, ok := m.Pop("k"); ok {
		t.Error("second Pop must miss")
	}
}

func TestMapKeysAndRange(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("key-%d", i), i)
	}

	keys := m.Keys()
	if len(keys) != 10 {
		t.Fatalf("got %d keys", len(keys))
	}
	sort.Strings(keys)
	if keys[0] != "key-0" || keys[9] != "key-9" {
		t.Errorf("keys %v", keys)
	}

	// Range stops when the callback returns false.
	seen := 0
	m.Range(func(string, int) bool {
		seen++
		return seen < 3
	})
	if seen != 3 {
		t.Errorf("range visited %d entries after early stop", seen)
	}
}

func TestMapShardCountFallback(t *testing.T) {
	for _, n := range []int{0, -1, 3, 17} {
		m := NewWithShards[int](n)
		if len(m.shards) != DefaultShardCount {
			t.Errorf("NewWithShards(%d): %d shards", n, len(m.shards))
		}
	}
	if m := NewWithShards[int](4); len(m.shards) != 4 {
		t.Errorf("power of 2 must be honored, got %d shards", len(m.shards))
	}
}

func TestMapConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				m.Set(key, i)
				if v, ok := m.Get(key); !ok || v != i {
					t.Errorf("lost write for %s", key)
				}
			}
		}(g)
	}
	wg.Wait()

	if m.Count() != 800 {
		t.Errorf("Count = %d, want 800", m.Count())
	}
}
