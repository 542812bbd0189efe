package embedding

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheHitAndMiss(t *testing.T) {
	cache := newTTLCache()

	if _, ok := cache.get("missing"); ok {
		t.Fatal("empty cache reported a hit")
	}

	cache.put("hello", []float32{1, 2, 3})
	vector, ok := cache.get("hello")
	if !ok {
		t.Fatal("expected a hit after put")
	}
	if len(vector) != 3 || vector[0] != 1 {
		t.Errorf("got %v, want [1 2 3]", vector)
	}
}

func TestCacheExpiry(t *testing.T) {
	now := time.Now()
	cache := newTTLCache()
	cache.now = func() time.Time { return now }

	cache.put("hello", []float32{1})
	if _, ok := cache.get("hello"); !ok {
		t.Fatal("fresh entry missed")
	}

	now = now.Add(cache.ttl + time.Second)
	if _, ok := cache.get("hello"); ok {
		t.Error("expired entry served")
	}
}

func TestCacheLastWriterWins(t *testing.T) {
	cache := newTTLCache()
	cache.put("key", []float32{1})
	cache.put("key", []float32{2})

	vector, ok := cache.get("key")
	if !ok || vector[0] != 2 {
		t.Errorf("got %v, want the later value", vector)
	}
}

func TestCacheEvictsWhenFull(t *testing.T) {
	cache := newTTLCache()
	cache.maxEntries = 8

	for i := 0; i < 20; i++ {
		cache.put(fmt.Sprintf("key-%d", i), []float32{float32(i)})
	}
	if got := cache.len(); got > 8 {
		t.Errorf("cache grew to %d entries, cap is 8", got)
	}
}
