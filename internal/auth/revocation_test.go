package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemRevocationsExpiry(t *testing.T) {
	now := time.Now()
	r := NewMemRevocations()
	r.now = func() time.Time { return now }
	ctx := context.Background()

	if err := r.Revoke(ctx, "jti-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked, _ := r.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatal("revocation not visible immediately")
	}

	now = now.Add(2 * time.Minute)
	if revoked, _ := r.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatal("entry should not outlive the token expiry")
	}

	// The next write prunes the stale entry, keeping the set bounded.
	if err := r.Revoke(ctx, "jti-2", now.Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	r.mu.RLock()
	_, stale := r.revoked["jti-1"]
	r.mu.RUnlock()
	if stale {
		t.Fatal("expired entry was not pruned")
	}
}
