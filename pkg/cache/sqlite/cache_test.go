package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	c, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func fp(ct models.ContentType, prompt string) models.Fingerprint {
	return models.Fingerprint{ContentType: ct, Prompt: prompt, Params: "temp=0.70"}
}

func TestPutAndGet(t *testing.T) {
	c := newTestCache(t)
	now := time.Now()

	if err := c.Put(fp(models.ContentText, "hola"), []byte("hello"), time.Hour, now); err != nil {
		t.Fatal(err)
	}

	data, createdAt, ttl, ok := c.Get(fp(models.ContentText, "hola"), now)
	if !ok {
		t.Fatal("expected hit")
	}
	if string(data) != "hello" {
		t.Errorf("unexpected data: %s", data)
	}
	if ttl != time.Hour {
		t.Errorf("unexpected ttl: %v", ttl)
	}
	if createdAt.IsZero() {
		t.Error("created_at not preserved")
	}

	if _, _, _, ok := c.Get(fp(models.ContentText, "adios"), now); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestGetExpired(t *testing.T) {
	c := newTestCache(t)
	now := time.Now()

	if err := c.Put(fp(models.ContentText, "hola"), []byte("x"), time.Minute, now); err != nil {
		t.Fatal(err)
	}

	if _, _, _, ok := c.Get(fp(models.ContentText, "hola"), now.Add(2*time.Minute)); ok {
		t.Error("expected miss after TTL elapsed")
	}
}

func TestInvalidate(t *testing.T) {
	c := newTestCache(t)
	now := time.Now()

	_ = c.Put(fp(models.ContentText, "verbs drill"), []byte("a"), time.Hour, now)
	_ = c.Put(fp(models.ContentText, "nouns drill"), []byte("b"), time.Hour, now)
	_ = c.Put(fp(models.ContentImage, "verbs poster"), []byte("c"), time.Hour, now)

	n, err := c.Invalidate(models.CacheFilter{ContentType: models.ContentText, PromptContains: "verbs"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}

	count, err := c.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 remaining, got %d", count)
	}
}

func TestSweep(t *testing.T) {
	c := newTestCache(t)
	now := time.Now()

	_ = c.Put(fp(models.ContentText, "short"), []byte("a"), time.Second, now)
	_ = c.Put(fp(models.ContentText, "long"), []byte("b"), time.Hour, now)

	removed, err := c.Sweep(now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("expected 1 swept, got %d", removed)
	}
}

func TestEvictOldestHalf(t *testing.T) {
	c := newTestCache(t)
	base := time.Now()

	for i := 0; i < 10; i++ {
		f := fp(models.ContentText, fmt.Sprintf("prompt-%d", i))
		if err := c.Put(f, []byte("v"), time.Hour, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.evictOldestHalf(); err != nil {
		t.Fatal(err)
	}

	count, err := c.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Errorf("expected 5 entries after eviction, got %d", count)
	}

	// The newest entries survive.
	if _, _, _, ok := c.Get(fp(models.ContentText, "prompt-9"), base.Add(10*time.Minute)); !ok {
		t.Error("newest entry was evicted")
	}
	if _, _, _, ok := c.Get(fp(models.ContentText, "prompt-0"), base.Add(10*time.Minute)); ok {
		t.Error("oldest entry survived eviction")
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t)
	now := time.Now()
	_ = c.Put(fp(models.ContentText, "a"), []byte("1"), time.Hour, now)

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	count, _ := c.Count()
	if count != 0 {
		t.Errorf("expected empty cache, got %d", count)
	}
}
