// ABOUTME: Tests for the redis session storage
// ABOUTME: Uses miniredis so no external server is required

package session

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	storage := NewRedisStorage(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { storage.Close() })
	return storage, mr
}

func TestRedisStorage_GetMissing(t *testing.T) {
	storage, _ := newTestRedis(t, 0)

	_, ok, err := storage.Get("auth-user")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("expected missing key")
	}
}

func TestRedisStorage_SetGetRemove(t *testing.T) {
	storage, mr := newTestRedis(t, 0)

	if err := storage.Set("auth-user", `{"username":"alice"}`); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if !mr.Exists("flightdesk:auth-user") {
		t.Error("expected prefixed key in redis")
	}

	val, ok, err := storage.Get("auth-user")
	if err != nil || !ok {
		t.Fatalf("Get() = %q, %v, %v", val, ok, err)
	}
	if val != `{"username":"alice"}` {
		t.Errorf("unexpected value %q", val)
	}

	if err := storage.Remove("auth-user"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if mr.Exists("flightdesk:auth-user") {
		t.Error("expected key to be deleted")
	}
}

func TestRedisStorage_TTL(t *testing.T) {
	storage, mr := newTestRedis(t, time.Hour)

	storage.Set("auth-user", `{"username":"alice"}`)
	if ttl := mr.TTL("flightdesk:auth-user"); ttl != time.Hour {
		t.Errorf("expected TTL 1h, got %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := storage.Get("auth-user"); ok {
		t.Error("expected key to expire")
	}
}

func TestRedisStorage_BacksStore(t *testing.T) {
	storage, _ := newTestRedis(t, 0)

	first := New(storage)
	first.Save(aliceSession())

	second := New(storage)
	if !second.Current().Equal(aliceSession()) {
		t.Errorf("expected session to round-trip through redis, got %+v", second.Current())
	}
}

func TestOpenRedisStorage_InvalidURL(t *testing.T) {
	if _, err := OpenRedisStorage("not-a-url", 0); err == nil {
		t.Error("expected error for invalid redis URL")
	}
}
