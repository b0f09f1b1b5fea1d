package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore tracks revoked token identifiers. Entries become
// irrelevant once the token they belong to has expired, so implementations
// evict them at expiry to keep the set bounded.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemRevocations is the process-local RevocationStore. A revocation is
// visible to every subsequent IsRevoked call immediately; expired entries
// are pruned lazily on writes.
type MemRevocations struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemRevocations constructs an empty registry.
func NewMemRevocations() *MemRevocations {
	return &MemRevocations{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke inserts the jti, remembered until the owning token's expiry.
func (r *MemRevocations) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, id)
		}
	}
	r.revoked[jti] = expiresAt
	return nil
}

// IsRevoked reports membership; a jti whose token has expired no longer counts.
func (r *MemRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.RLock()
	exp, ok := r.revoked[jti]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return !r.now().After(exp), nil
}
