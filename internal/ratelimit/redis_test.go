package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, NewRedis(client)
}

func TestRedisSlidingWindow(t *testing.T) {
	_, backend := newTestRedis(t)
	now := time.Now()
	backend.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := backend.Allow(ctx, "login:1.2.3.4", 3, 5*time.Minute)
		if err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request %d denied under the limit", i)
		}
	}

	ok, err := backend.Allow(ctx, "login:1.2.3.4", 3, 5*time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("request admitted over the limit")
	}

	remaining, err := backend.Remaining(ctx, "login:1.2.3.4", 3, 5*time.Minute)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}

	// The denied attempt recorded nothing, so the window frees all three
	// slots at once.
	now = now.Add(5*time.Minute + time.Second)
	remaining, err = backend.Remaining(ctx, "login:1.2.3.4", 3, 5*time.Minute)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 3 {
		t.Fatalf("remaining after slide = %d, want 3", remaining)
	}
}

func TestRedisRetryAfterTracksOldestEvent(t *testing.T) {
	_, backend := newTestRedis(t)
	// Scores are milliseconds; align the clock so the arithmetic is exact.
	now := time.Now().Truncate(time.Millisecond)
	backend.now = func() time.Time { return now }
	ctx := context.Background()

	backend.Allow(ctx, "login:a", 2, time.Minute)
	now = now.Add(15 * time.Second)
	backend.Allow(ctx, "login:a", 2, time.Minute)

	now = now.Add(10 * time.Second)
	ra, err := backend.RetryAfter(ctx, "login:a", time.Minute)
	if err != nil {
		t.Fatalf("RetryAfter: %v", err)
	}
	if ra != 35*time.Second {
		t.Fatalf("RetryAfter = %s, want 35s", ra)
	}

	ra, err = backend.RetryAfter(ctx, "login:empty", time.Minute)
	if err != nil {
		t.Fatalf("RetryAfter: %v", err)
	}
	if ra != 0 {
		t.Fatalf("RetryAfter for empty window = %s, want 0", ra)
	}
}

func TestRedisKeysAreIndependent(t *testing.T) {
	_, backend := newTestRedis(t)
	ctx := context.Background()

	backend.Allow(ctx, "register:10.0.0.1", 1, time.Hour)
	if ok, _ := backend.Allow(ctx, "register:10.0.0.1", 1, time.Hour); ok {
		t.Fatal("exhausted key still admitted")
	}
	if ok, _ := backend.Allow(ctx, "register:10.0.0.2", 1, time.Hour); !ok {
		t.Fatal("separate client was throttled")
	}
}

func TestRedisUnreachableSurfacesError(t *testing.T) {
	mr, backend := newTestRedis(t)
	mr.Close()

	if _, err := backend.Allow(context.Background(), "api:x", 10, time.Minute); err == nil {
		t.Fatal("expected error when the shared backend is unreachable")
	}
}
