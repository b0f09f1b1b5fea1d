package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"finledger.org/internal/ids"
	"finledger.org/internal/obs"
)

const (
	defaultLockoutLimit = 5
	defaultLockoutFor   = 30 * time.Minute
)

// Service orchestrates the credential store, password hasher and token
// manager. It owns every transition of the per-account login state machine:
// active, locked, and the automatic locked-to-active expiry.
type Service struct {
	store        CredentialStore
	hasher       PasswordHasher
	tokens       *TokenManager
	lockoutLimit int
	lockoutFor   time.Duration
	now          func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithLockoutPolicy overrides the failure threshold and lockout duration.
func WithLockoutPolicy(limit int, duration time.Duration) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.lockoutLimit = limit
		}
		if duration > 0 {
			s.lockoutFor = duration
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the auth service.
func NewService(store CredentialStore, hasher PasswordHasher, tokens *TokenManager, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: credential store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token manager is required")
	}
	s := &Service{
		store:        store,
		hasher:       hasher,
		tokens:       tokens,
		lockoutLimit: defaultLockoutLimit,
		lockoutFor:   defaultLockoutFor,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tokens exposes the token manager for the HTTP layer.
func (s *Service) Tokens() *TokenManager { return s.tokens }

// RegisterInput is the payload for creating a credential record.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// Register validates input, checks email and username uniqueness
// independently, and creates the credential record. New accounts start
// active, unverified, with a zero failure counter.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Username = strings.TrimSpace(strings.ToLower(in.Username))
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	if violations := validateRegistration(in); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	if _, err := s.store.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.FindByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           ids.New(),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Role:         RoleUser,
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   false,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login runs one attempt through the state machine:
//
//  1. load the credential record; an unknown email fails exactly like a
//     wrong password so account existence is never disclosed
//  2. deactivated accounts fail before any hash work
//  3. locked accounts fail without verifying the password
//  4. a mismatch increments the failure counter atomically; reaching the
//     threshold sets the lock and zeroes the counter
//  5. a match clears counters, stamps last_login and issues both tokens
//
// The HTTP layer gates this call behind the login rate-limit class before
// the credential store is ever touched.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, *User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		obs.ObserveLogin("invalid")
		return TokenPair{}, nil, ErrInvalidCredentials
	}

	now := s.now().UTC()

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.ObserveLogin("invalid")
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, err
	}
	if !u.IsActive {
		obs.ObserveLogin("deactivated")
		return TokenPair{}, nil, ErrAccountDeactivated
	}
	if u.Locked(now) {
		obs.ObserveLogin("locked")
		return TokenPair{}, nil, ErrAccountLocked
	}

	if err := s.hasher.Verify(u.PasswordHash, password); err != nil {
		locked, recErr := s.store.RecordFailure(ctx, u.ID, s.lockoutLimit, now.Add(s.lockoutFor))
		if recErr != nil {
			return TokenPair{}, nil, recErr
		}
		if locked {
			obs.ObserveLockout()
		}
		obs.ObserveLogin("invalid")
		return TokenPair{}, nil, ErrInvalidCredentials
	}

	if err := s.store.RecordSuccess(ctx, u.ID, now); err != nil {
		return TokenPair{}, nil, err
	}
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.LastLogin = &now

	pair, err := s.mintPair(SubjectOf(u))
	if err != nil {
		return TokenPair{}, nil, err
	}
	obs.ObserveLogin("success")
	return pair, u, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. Any
// verification failure collapses into ErrUnauthorized at this boundary.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.tokens.Verify(ctx, refreshToken, TokenRefresh)
	if err != nil {
		return "", time.Time{}, ErrUnauthorized
	}
	u, err := s.store.FindByID(ctx, claims.Subject)
	if err != nil || !u.IsActive {
		return "", time.Time{}, ErrUnauthorized
	}
	return s.tokens.IssueAccess(SubjectOf(u))
}

// Logout revokes the presented access token. An unverifiable token is a
// no-op, matching TokenManager.Revoke.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	return s.tokens.Revoke(ctx, accessToken)
}

// Authenticate is the collaborator contract consumed by every protected
// endpoint: verify the bearer token, then re-check the account state.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	claims, err := s.tokens.Verify(ctx, accessToken, TokenAccess)
	if err != nil {
		return nil, err
	}
	u, err := s.store.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !u.IsActive {
		return nil, ErrAccountDeactivated
	}
	if u.Locked(s.now().UTC()) {
		return nil, ErrAccountLocked
	}
	return u, nil
}

// Unlock force-clears a lockout ahead of its automatic expiry.
func (s *Service) Unlock(ctx context.Context, userID string) error {
	return s.store.Unlock(ctx, userID)
}

// SetActive toggles the account's active flag; reactivation also resets
// failure state.
func (s *Service) SetActive(ctx context.Context, userID string, active bool) error {
	return s.store.SetActive(ctx, userID, active)
}

func (s *Service) mintPair(sub Subject) (TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccess(sub)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(sub)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func validateRegistration(in RegisterInput) []string {
	var violations []string
	if len(in.Username) < 3 || len(in.Username) > 50 {
		violations = append(violations, "username must be between 3 and 50 characters")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		violations = append(violations, "invalid email format")
	}
	if in.FullName != "" && (len(in.FullName) < 2 || len(in.FullName) > 100) {
		violations = append(violations, "full name must be between 2 and 100 characters")
	}
	violations = append(violations, ValidatePassword(in.Password)...)
	return violations
}
