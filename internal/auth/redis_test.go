package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
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
	return mr, client
}

func TestRedisRevocations(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisRevocations(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Fatal("fresh jti reported revoked")
	}

	if err := store.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked after revoke: %v", err)
	}
	if !revoked {
		t.Fatal("revocation not visible immediately")
	}

	// The entry disappears once the owning token could no longer verify.
	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked after expiry: %v", err)
	}
	if revoked {
		t.Fatal("expired revocation entry still present")
	}
}

func TestRedisRevokeExpiredTokenIsNoop(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisRevocations(client)

	if err := store.Revoke(context.Background(), "jti-old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if mr.Exists(revocationKeyPrefix + "jti-old") {
		t.Fatal("no key should be written for an already-expired token")
	}
}

func TestRedisRevocationsFailClosed(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisRevocations(client)
	mr.Close()

	if _, err := store.IsRevoked(context.Background(), "jti-1"); err == nil {
		t.Fatal("expected error when the shared store is unreachable")
	}
}
