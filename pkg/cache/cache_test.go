package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	payload := []byte(`{"2861 LEFT SWITCH":"/parts/2861.gif"}`)
	if err := c.Set(ctx, "parts", payload, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, hit, err := c.Get(ctx, "parts")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v; want hit", hit, err)
	}
	if string(got) != string(payload) {
		t.Errorf("Get = %s, want %s", got, payload)
	}

	if err := c.Delete(ctx, "parts"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "parts"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "parts"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpired(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "geometry", []byte("{}"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, hit, err := c.Get(ctx, "geometry"); hit || err != nil {
		t.Errorf("Get expired = hit %v, err %v; want miss", hit, err)
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)

	path := c.path("broken")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "broken"); hit || err != nil {
		t.Errorf("Get corrupt = hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	a := k.CatalogKey("http://pi.local/api", "parts")
	b := k.CatalogKey("http://pi.local/api/", "parts")
	if a != b {
		t.Errorf("trailing slash should not change key: %s vs %s", a, b)
	}
	if k.CatalogKey("http://pi.local/api", "part_geometry") == a {
		t.Error("different endpoints should produce different keys")
	}
	if k.CatalogKey("http://other.local/api", "parts") == a {
		t.Error("different controllers should produce different keys")
	}
	if !strings.HasPrefix(a, "catalog:") {
		t.Errorf("key should be prefixed with catalog: %s", a)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "layout:v2:")
	key := scoped.CatalogKey("http://pi.local/api", "parts")
	if !strings.HasPrefix(key, "layout:v2:catalog:") {
		t.Errorf("ScopedKeyer key should be prefixed: %s", key)
	}
}

func TestFileCacheStatsAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	_ = c.Set(ctx, "parts", []byte("{}"), 0)
	_ = c.Set(ctx, "geometry", []byte("{}"), time.Nanosecond)
	time.Sleep(time.Millisecond)

	s, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Entries != 2 || s.Expired != 1 {
		t.Errorf("Stats = %+v, want 2 entries, 1 expired", s)
	}
	if s.Bytes == 0 {
		t.Error("Stats.Bytes should be non-zero")
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear removed %d, want 2", n)
	}
	if s, _ := c.Stats(); s.Entries != 0 {
		t.Errorf("Stats after Clear = %+v", s)
	}
}
