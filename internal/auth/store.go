package auth

import (
	"context"
	"time"
)

// CredentialStore describes persistence operations required by the auth
// subsystem. RecordFailure and RecordSuccess must be atomic per record:
// concurrent failed attempts on the same user may never under-count.
type CredentialStore interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)

	// RecordFailure increments the failure counter. When the counter reaches
	// threshold the record is locked until the given time and the counter
	// resets to zero. Reports whether this call caused the lock.
	RecordFailure(ctx context.Context, userID string, threshold int, lockUntil time.Time) (locked bool, err error)

	// RecordSuccess zeroes the failure counter, clears any lock and stamps
	// the last successful login.
	RecordSuccess(ctx context.Context, userID string, at time.Time) error

	// Unlock force-clears a lockout ahead of its expiry (admin operation).
	Unlock(ctx context.Context, userID string) error

	SetActive(ctx context.Context, userID string, active bool) error
}
