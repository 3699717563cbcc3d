package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil { t.Fatalf("miniredis: %v", err) }
	t.Cleanup(mr.Close)
	c := NewCacheServiceWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetGetDel(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", sample{Name: "a", Count: 2}, time.Minute); err != nil { t.Fatalf("Set: %v", err) }
	var got sample
	if err := c.Get(ctx, "k", &got); err != nil { t.Fatalf("Get: %v", err) }
	if got.Name != "a" || got.Count != 2 { t.Fatalf("got %+v", got) }
	if ttl := mr.TTL("k"); ttl != time.Minute { t.Fatalf("ttl = %v", ttl) }

	if err := c.Del(ctx, "k"); err != nil { t.Fatalf("Del: %v", err) }
	ok, err := c.Exists(ctx, "k")
	if err != nil || ok { t.Fatalf("Exists after Del = %v, %v", ok, err) }
}

func TestGetMissLeavesDest(t *testing.T) {
	c, _ := newTestCache(t)
	got := sample{Name: "keep"}
	if err := c.Get(context.Background(), "missing", &got); err != nil { t.Fatalf("Get miss: %v", err) }
	if got.Name != "keep" { t.Fatalf("dest modified on miss: %+v", got) }
}

func TestGetCorruptValue(t *testing.T) {
	c, mr := newTestCache(t)
	_ = mr.Set("bad", "{not json")
	var got sample
	if err := c.Get(context.Background(), "bad", &got); err == nil { t.Fatalf("expected decode error") }
}

func TestParseRedisURL(t *testing.T) {
	cfg, err := ParseRedisURL("redis://:secret@cache.local:6380/3")
	if err != nil { t.Fatalf("ParseRedisURL: %v", err) }
	if cfg.Host != "cache.local" || cfg.Port != 6380 || cfg.Password != "secret" || cfg.DB != 3 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Addr() != "cache.local:6380" { t.Fatalf("addr = %s", cfg.Addr()) }
	if _, err := ParseRedisURL("http://x"); err == nil { t.Fatalf("expected scheme error") }
	def, _ := ParseRedisURL("redis://localhost")
	if def.Port != 6379 { t.Fatalf("default port = %d", def.Port) }
}
