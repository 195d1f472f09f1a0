package photometry

import (
	"errors"
	"testing"

	"github.com/luxera/luxcalc/pkg/core"
)

func TestCache_PutAndLookup(t *testing.T) {
	cache := NewCache()
	d, err := NewUniformDistribution(500)
	if err != nil {
		t.Fatalf("Failed to build distribution: %v", err)
	}

	hash := cache.Put(d)
	if hash != d.ContentHash() {
		t.Errorf("Expected Put to return the content hash %s, got %s", d.ContentHash(), hash)
	}

	got, err := cache.Lookup(hash)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != d {
		t.Error("Expected Lookup to return the stored distribution by pointer")
	}

	// Same content stored twice dedupes to one entry.
	d2, _ := NewUniformDistribution(500)
	cache.Put(d2)
	if cache.Len() != 1 {
		t.Errorf("Expected 1 cache entry after duplicate Put, got %d", cache.Len())
	}
}

func TestCache_LookupMissing(t *testing.T) {
	cache := NewCache()
	_, err := cache.Lookup("deadbeef")
	if err == nil {
		t.Fatal("Expected error for missing hash, got nil")
	}
	if !errors.Is(err, core.ErrMissingAsset) {
		t.Errorf("Expected ErrMissingAsset, got %v", err)
	}
}
