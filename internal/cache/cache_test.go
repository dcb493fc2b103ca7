package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHTTPCache_SaveAndLoad(t *testing.T) {
	c := &HTTPCache{Dir: t.TempDir()}
	ctx := context.Background()
	url := "https://news.example.com/markets/article-1"
	body := []byte("<html><body><p>cached page</p></body></html>")

	if err := c.Save(ctx, url, "text/html", `"etag-1"`, "Mon, 02 Jan 2006 15:04:05 GMT", body); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := c.LoadMeta(ctx, url)
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if meta.URL != url || meta.ETag != `"etag-1"` || meta.ContentType != "text/html" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if meta.SavedAt.IsZero() {
		t.Fatalf("expected SavedAt to be set")
	}
	got, err := c.LoadBody(ctx, url)
	if err != nil {
		t.Fatalf("load body: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("body mismatch: %q", got)
	}
}

func TestHTTPCache_MissReturnsError(t *testing.T) {
	c := &HTTPCache{Dir: t.TempDir()}
	if _, err := c.LoadMeta(context.Background(), "https://news.example.com/nope"); err == nil {
		t.Fatalf("expected error for missing entry")
	}
}

func TestFileResultCache_RoundTrip(t *testing.T) {
	c := &FileResultCache{Dir: t.TempDir()}
	ctx := context.Background()
	url := "https://news.example.com/markets/article-2"

	if _, ok, err := c.Get(ctx, url); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	payload := []byte(`{"summary":"stored"}`)
	if err := c.Save(ctx, url, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(ctx, url)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestRedisResultCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := &RedisResultCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	ctx := context.Background()
	url := "https://news.example.com/markets/article-3"

	if _, ok, err := c.Get(ctx, url); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	payload := []byte(`{"summary":"stored in redis"}`)
	if err := c.Save(ctx, url, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(ctx, url)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestRedisResultCache_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := &RedisResultCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}), TTL: time.Minute}
	ctx := context.Background()
	url := "https://news.example.com/markets/article-4"

	if err := c.Save(ctx, url, []byte("{}")); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, err := c.Get(ctx, url); err != nil || ok {
		t.Fatalf("expected expiry miss, got ok=%v err=%v", ok, err)
	}
}

func TestPromptCache_RoundTrip(t *testing.T) {
	c := &PromptCache{Dir: t.TempDir()}
	ctx := context.Background()
	key := KeyFrom("test-model", "summarize this")

	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatalf("expected miss for fresh cache")
	}
	if err := c.Save(ctx, key, []byte(`{"summary":"ok"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != `{"summary":"ok"}` {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestPurgePageCacheByAge(t *testing.T) {
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	ctx := context.Background()
	url := "https://news.example.com/old-article"
	if err := c.Save(ctx, url, "text/html", "", "", []byte("old")); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Age the entry by rewriting its SavedAt timestamp.
	metaPath := filepath.Join(dir, URLKey(url)+".meta.json")
	old := PageMeta{URL: url, SavedAt: time.Now().UTC().Add(-48 * time.Hour)}
	b, _ := json.Marshal(old)
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		t.Fatalf("rewrite meta: %v", err)
	}

	removed, err := PurgePageCacheByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(metaPath); !os.IsNotExist(err) {
		t.Fatalf("expected meta removed")
	}
	if _, err := os.Stat(filepath.Join(dir, URLKey(url)+".body")); !os.IsNotExist(err) {
		t.Fatalf("expected body removed")
	}
}

func TestPurgeJSONCacheByAge(t *testing.T) {
	dir := t.TempDir()
	rc := &FileResultCache{Dir: dir}
	ctx := context.Background()
	if err := rc.Save(ctx, "https://news.example.com/stale", []byte("{}")); err != nil {
		t.Fatalf("save: %v", err)
	}
	stale := filepath.Join(dir, URLKey("https://news.example.com/stale")+".result.json")
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := PurgeJSONCacheByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "cache")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "entry.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ClearDir(sub); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(sub)
	if err != nil {
		t.Fatalf("expected dir recreated: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %d entries", len(entries))
	}
}
