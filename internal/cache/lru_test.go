package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a present")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.now)

	c.Set("k", "v")
	clock.advance(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected live entry")
	}
	clock.advance(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry")
	}

	c.Set("x", "1")
	c.Set("y", "2")
	clock.advance(2 * time.Minute)
	c.Set("z", "3")
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("CleanExpired removed %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCache_Update(t *testing.T) {
	c := NewLRUCache[map[string]string](10, 0)

	c.Update("s", func(cur map[string]string, exists bool) (map[string]string, bool) {
		if exists {
			t.Fatal("unexpected existing value")
		}
		return map[string]string{"a": "1"}, true
	})
	c.Update("s", func(cur map[string]string, exists bool) (map[string]string, bool) {
		next := map[string]string{"b": "2"}
		for k, v := range cur {
			next[k] = v
		}
		return next, exists
	})
	got, ok := c.Get("s")
	if !ok || got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("got %v, %v", got, ok)
	}

	c.Update("s", func(map[string]string, bool) (map[string]string, bool) { return nil, false })
	if _, ok := c.Get("s"); ok {
		t.Fatal("expected entry removed")
	}
}

func TestManager_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	a := NewLRUCache[int](10, time.Second).WithClock(clock.now)
	b := NewLRUCache[int](10, time.Second).WithClock(clock.now)
	a.Set("1", 1)
	b.Set("2", 2)
	b.Set("3", 3)
	clock.advance(2 * time.Second)

	m := NewManager()
	m.Register(a)
	m.Register(b)
	if n := m.Sweep(); n != 3 {
		t.Fatalf("Sweep removed %d, want 3", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
