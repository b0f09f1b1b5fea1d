package auth

import "time"

// Roles assigned to users. New registrations always start as RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the credential record backing the login state machine. The
// failure counter and lock timestamp are mutated only through
// CredentialStore.RecordFailure / RecordSuccess / Unlock.
type User struct {
	ID             string
	Username       string
	Email          string
	FullName       string
	Role           string
	PasswordHash   string
	IsActive       bool
	IsVerified     bool
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Locked reports whether the record is inside an active lockout window.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Subject is the identity embedded into signed tokens.
type Subject struct {
	UserID   string
	Email    string
	Role     string
	FullName string
}

// SubjectOf extracts the token subject from a credential record.
func SubjectOf(u *User) Subject {
	return Subject{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		FullName: u.FullName,
	}
}

// TokenPair holds freshly issued access and refresh tokens.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
