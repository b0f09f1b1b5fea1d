package auth

import "strings"

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// Substrings that disqualify a password regardless of its other properties.
var weakSubstrings = []string{
	"123456",
	"password",
	"qwerty",
	"abc123",
	"admin",
	"letmein",
}

// ValidatePassword checks password strength and returns every violated rule.
// An empty slice means the password is acceptable.
func ValidatePassword(password string) []string {
	var violations []string

	if len(password) < minPasswordLen {
		violations = append(violations, "password must be at least 8 characters long")
	}
	if len(password) > maxPasswordLen {
		violations = append(violations, "password must not exceed 128 characters")
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*()_+-=[]{};':\"\\|,.<>/?", r):
			hasSymbol = true
		}
	}
	if !hasLower {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain at least one digit")
	}
	if !hasSymbol {
		violations = append(violations, "password must contain at least one special character")
	}

	lowered := strings.ToLower(password)
	for _, weak := range weakSubstrings {
		if strings.Contains(lowered, weak) {
			violations = append(violations, "password contains common weak patterns")
			break
		}
	}

	return violations
}
