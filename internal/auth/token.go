package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates access from refresh tokens inside the signed
// claims, so one signing key serves both without either being replayable
// as the other.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

const defaultIssuer = "finledger"

// Claims is the signed payload carried by every token.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	FullName  string `json:"name,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256-signed tokens and consults the
// revocation registry on every verification.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    RevocationStore
	now        func() time.Time
}

// TokenOption configures TokenManager.
type TokenOption func(*TokenManager)

// WithTokenTTLs overrides access and refresh token lifetimes.
func WithTokenTTLs(access, refresh time.Duration) TokenOption {
	return func(m *TokenManager) {
		if access > 0 {
			m.accessTTL = access
		}
		if refresh > 0 {
			m.refreshTTL = refresh
		}
	}
}

// WithTokenClock overrides the time source (useful for tests).
func WithTokenClock(fn func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// WithTokenIssuer overrides the issuer claim.
func WithTokenIssuer(issuer string) TokenOption {
	return func(m *TokenManager) {
		if strings.TrimSpace(issuer) != "" {
			m.issuer = strings.TrimSpace(issuer)
		}
	}
}

// NewTokenManager constructs a manager bound to one signing secret and one
// revocation registry.
func NewTokenManager(secret string, revoked RevocationStore, opts ...TokenOption) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if revoked == nil {
		return nil, errors.New("auth: revocation store is required")
	}
	m := &TokenManager{
		secret:     []byte(secret),
		issuer:     defaultIssuer,
		accessTTL:  30 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		revoked:    revoked,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AccessTTL reports the configured access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// IssueAccess mints a short-lived access token for the subject.
func (m *TokenManager) IssueAccess(sub Subject) (string, time.Time, error) {
	return m.issue(sub, TokenAccess, m.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for the subject.
func (m *TokenManager) IssueRefresh(sub Subject) (string, time.Time, error) {
	return m.issue(sub, TokenRefresh, m.refreshTTL)
}

func (m *TokenManager) issue(sub Subject, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(sub.UserID) == "" {
		return "", time.Time{}, errors.New("auth: subject user id is required")
	}
	now := m.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Email:     sub.Email,
		Role:      sub.Role,
		FullName:  sub.FullName,
		TokenType: string(typ),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify validates signature, expiry and token type, then rejects tokens
// whose jti has been revoked. Verifying the same valid token repeatedly
// yields identical claims.
func (m *TokenManager) Verify(ctx context.Context, token string, want TokenType) (*Claims, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != string(want) {
		return nil, ErrTokenTypeMismatch
	}
	revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke inserts the token's jti into the revocation registry. A token
// whose signature does not validate, or which has already expired, is a
// no-op rather than an error; only access tokens are tracked.
func (m *TokenManager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	switch {
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenSignature):
		return nil
	case err != nil:
		return err
	}
	if claims.TokenType != string(TokenAccess) {
		return nil
	}
	return m.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (m *TokenManager) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenSignature
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.issuer),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenSignature
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenSignature
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ID == "" {
		return nil, ErrTokenSignature
	}
	return claims, nil
}
