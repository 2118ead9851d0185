package localcache

import (
	"testing"

	"github.com/google/uuid"
)

type cacheEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCachePutGet(t *testing.T) {
	cache, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := GlobalKey("menu", 1)
	if err := cache.Put(key, cacheEntry{Name: "Nasi Goreng", Count: 3}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var got cacheEntry
	found, err := cache.Get(key, &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if got.Name != "Nasi Goreng" || got.Count != 3 {
		t.Errorf("Get() = %+v", got)
	}
}

func TestCacheGetMissing(t *testing.T) {
	cache, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var got cacheEntry
	found, err := cache.Get("never-stored", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true for missing key")
	}
}

func TestCacheOverwrite(t *testing.T) {
	cache, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := BranchKey(uuid.New(), "orders")
	if err := cache.Put(key, cacheEntry{Count: 1}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := cache.Put(key, cacheEntry{Count: 2}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var got cacheEntry
	if _, err := cache.Get(key, &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Count != 2 {
		t.Errorf("Count = %d, want 2 (last write wins)", got.Count)
	}
}

func TestCacheDelete(t *testing.T) {
	cache, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := GlobalKey("profile", 1)
	if err := cache.Put(key, cacheEntry{Count: 1}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := cache.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var got cacheEntry
	found, err := cache.Get(key, &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("entry still present after Delete()")
	}

	// Deleting again is a no-op.
	if err := cache.Delete(key); err != nil {
		t.Errorf("Delete() on missing key error = %v", err)
	}
}

func TestCacheKeyNames(t *testing.T) {
	branchID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440070")

	if got, want := BranchKey(branchID, "orders"), "branch-550e8400-e29b-41d4-a716-446655440070-orders"; got != want {
		t.Errorf("BranchKey() = %q, want %q", got, want)
	}
	if got, want := GlobalKey("menu", 2), "global-menu-v2"; got != want {
		t.Errorf("GlobalKey() = %q, want %q", got, want)
	}
}
