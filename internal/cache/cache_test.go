package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/reltext/internal/model"
)

func TestKey_StableAndNamespaced(t *testing.T) {
	a := Key("http", "Иван поехал в Москву.")
	b := Key("http", "Иван поехал в Москву.")
	c := Key("command", "Иван поехал в Москву.")

	if a != b {
		t.Errorf("expected identical keys, got %s and %s", a, b)
	}
	if a == c {
		t.Error("expected different namespaces to produce different keys")
	}
	if !strings.HasPrefix(a, keyPrefix) {
		t.Errorf("expected key prefix %q, got %s", keyPrefix, a)
	}
	if strings.ContainsAny(a, `:/\`) {
		t.Errorf("key is not file-name safe: %s", a)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache(0, time.Minute)

	if _, ok := c.GetString("иван"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.SetString("ивана", "Иван")
	got, ok := c.GetString("ивана")
	if !ok || got != "Иван" {
		t.Fatalf("expected hit with Иван, got %q (%v)", got, ok)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d and %d", hits, misses)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("test", "doc")

	if err := c.Set(key, []byte(`{"spans":[]}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != `{"spans":[]}` {
		t.Fatalf("unexpected value %q (%v)", got, ok)
	}

	// Entry stored under its shard directory
	if _, err := os.Stat(filepath.Join(dir, key[len(key)-2:], key+".cache")); err != nil {
		t.Errorf("expected sharded cache file: %v", err)
	}

	if err := c.Set(key, []byte("stale"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to be dropped")
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	layered := NewLayeredCache(model.CacheConfig{Enabled: true, Dir: t.TempDir(), TTL: time.Hour, MemoryTTL: time.Hour})
	key := Key("test", "promote")
	if err := layered.disk.Set(key, []byte("value"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	mem := layered.memory
	if _, ok := mem.Get(key); ok {
		t.Fatal("expected memory layer to start empty")
	}

	got, ok := layered.Get(key)
	if !ok || string(got) != "value" {
		t.Fatalf("expected disk hit, got %q (%v)", got, ok)
	}
	if _, ok := mem.Get(key); !ok {
		t.Error("expected value to be promoted to memory")
	}

	if err := layered.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := layered.Get(key); ok {
		t.Error("expected empty cache after Clear")
	}
}
