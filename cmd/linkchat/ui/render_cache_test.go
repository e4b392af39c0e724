package ui

import (
	"testing"
)

func TestComputeKey(t *testing.T) {
	if ComputeKey("answer", 80, false) != ComputeKey("answer", 80, false) {
		t.Errorf("expected same key for same inputs")
	}
	if ComputeKey("answer", 80, false) == ComputeKey("answer", 81, false) {
		t.Errorf("width must be part of the key")
	}
	if ComputeKey("answer", 80, false) == ComputeKey("answer", 80, true) {
		t.Errorf("theme must be part of the key")
	}
	if ComputeKey("a", 80, false) == ComputeKey("b", 80, false) {
		t.Errorf("content must be part of the key")
	}
}

func TestRenderCache_GetOrCompute(t *testing.T) {
	rc := NewRenderCache(10)
	calls := 0
	render := func() string {
		calls++
		return "rendered"
	}

	key := ComputeKey("# Title", 80, false)
	for i := 0; i < 3; i++ {
		if got := rc.GetOrCompute(key, render); got != "rendered" {
			t.Fatalf("expected rendered, got %q", got)
		}
	}

	if calls != 1 {
		t.Errorf("expected render once, got %d", calls)
	}
	hits, misses := rc.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("expected 2 hits / 1 miss, got %d / %d", hits, misses)
	}
}

func TestRenderCache_EvictsWhenFull(t *testing.T) {
	rc := NewRenderCache(2)

	rc.Set(1, "a")
	rc.Set(2, "b")
	rc.Set(2, "b2") // overwrite does not evict
	if rc.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", rc.Len())
	}

	rc.Set(3, "c")
	if rc.Len() != 1 {
		t.Errorf("expected cache emptied before inserting into a full cache, got %d entries", rc.Len())
	}
	if got, ok := rc.Get(3); !ok || got != "c" {
		t.Errorf("expected newest entry kept, got %q %v", got, ok)
	}
}

func TestRenderCache_Clear(t *testing.T) {
	rc := NewRenderCache(0)
	rc.Set(1, "a")
	rc.Clear()

	if _, ok := rc.Get(1); ok {
		t.Errorf("expected empty cache after Clear")
	}
}

func BenchmarkComputeKey(b *testing.B) {
	content := "It is about X. It covers **several** topics in some depth."
	for i := 0; i < b.N; i++ {
		ComputeKey(content, 100, true)
	}
}
