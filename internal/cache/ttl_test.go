package cache

import (
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := NewTTLCache(time.Minute, clock)
	c.Set("templates", []string{"a", "b"})

	if v, ok := c.Get("templates"); !ok || v == nil {
		t.Fatalf("fresh entry should hit")
	}

	now = now.Add(59 * time.Second)
	if _, ok := c.Get("templates"); !ok {
		t.Fatalf("entry within ttl should hit")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("templates"); ok {
		t.Fatalf("expired entry should miss")
	}
}

func TestTTLCacheInvalidate(t *testing.T) {
	c := NewTTLCache(time.Minute, nil)
	c.Set("k", 1)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("invalidated entry should miss")
	}

	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	if _, ok := c.Get("a"); ok {
		t.Fatalf("purged entry should miss")
	}
}

func TestTTLCacheSetRenews(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := NewTTLCache(time.Minute, clock)
	c.Set("k", 1)
	now = now.Add(50 * time.Second)
	c.Set("k", 2)
	now = now.Add(50 * time.Second)

	v, ok := c.Get("k")
	if !ok || v.(int) != 2 {
		t.Fatalf("renewed entry should still hit with latest value, got %v %v", v, ok)
	}
}
